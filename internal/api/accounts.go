package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/ProjectApnapan/apnapan-pulse/internal/account"
)

const maxLogoBytes = 2 << 20

type createAccountRequest struct {
	SchoolID   string `json:"school_id"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	SchoolName string `json:"school_name"`
}

// readCreateRequest accepts JSON, or a multipart form with an optional
// "logo" file part.
func readCreateRequest(r *http.Request) (account.CreateRequest, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var body createAccountRequest
		if err := decodeJSON(r, &body); err != nil {
			return account.CreateRequest{}, err
		}
		return account.CreateRequest{
			SchoolID:   body.SchoolID,
			Password:   body.Password,
			Email:      body.Email,
			SchoolName: body.SchoolName,
		}, nil
	}

	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		return account.CreateRequest{}, err
	}
	req := account.CreateRequest{
		SchoolID:   r.FormValue("school_id"),
		Password:   r.FormValue("password"),
		Email:      r.FormValue("email"),
		SchoolName: r.FormValue("school_name"),
	}
	f, hdr, err := r.FormFile("logo")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, err
	}
	defer f.Close() //nolint:errcheck
	req.Logo, err = io.ReadAll(io.LimitReader(f, maxLogoBytes))
	req.LogoName = hdr.Filename
	return req, err
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+(64<<10))
	req, err := readCreateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err = s.deps.Accounts.Create(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{
			"status":  "created",
			"message": "Account created successfully!",
		})
	case errors.Is(err, account.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, "Password is too short.")
	case errors.Is(err, account.ErrMissingField):
		writeError(w, http.StatusBadRequest, "School ID and school name are required.")
	case errors.Is(err, account.ErrDuplicateID):
		writeError(w, http.StatusConflict, "School ID already exists.")
	default:
		internalError(w, "error creating account", err)
	}
}

type loginRequest struct {
	SchoolID string `json:"school_id"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	ExpiresIn  int    `json:"expires_in"`
	SchoolID   string `json:"school_id"`
	SchoolName string `json:"school_name"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SchoolID = strings.TrimSpace(req.SchoolID)

	ok, err := s.deps.Accounts.Login(r.Context(), req.SchoolID, req.Password)
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "School ID not found.")
		return
	case errors.Is(err, account.ErrInvalidPassword), err == nil && !ok:
		writeError(w, http.StatusUnauthorized, "Invalid password.")
		return
	case err != nil:
		internalError(w, "error validating login", err)
		return
	}

	name, _, err := s.deps.Accounts.SchoolDetails(r.Context(), req.SchoolID)
	if err != nil {
		internalError(w, "error fetching school details", err)
		return
	}
	token, err := s.deps.Tokens.Issue(req.SchoolID, name)
	if err != nil {
		internalError(w, "error issuing token", err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:      token,
		ExpiresIn:  int(s.deps.Tokens.TTL().Seconds()),
		SchoolID:   req.SchoolID,
		SchoolName: name,
	})
}

type verifyRequest struct {
	SchoolID string `json:"school_id"`
	Email    string `json:"email"`
}

type resetRequest struct {
	SchoolID    string `json:"school_id"`
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

func (s *Server) writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "School ID not found.")
	case errors.Is(err, account.ErrEmailMismatch):
		writeError(w, http.StatusForbidden, "The email address provided does not match our records for this School ID.")
	default:
		internalError(w, "error during verification", err)
	}
}

func (s *Server) verifyReset(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.deps.Accounts.VerifyReset(r.Context(), req.SchoolID, req.Email); err != nil {
		s.writeVerifyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "verified",
		"message": "Verification successful. Please set your new password.",
	})
}

// resetPassword re-checks the registered email before changing the
// password, so the reset needs no server-side state from verifyReset.
func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.deps.Accounts.VerifyReset(r.Context(), req.SchoolID, req.Email); err != nil {
		s.writeVerifyError(w, err)
		return
	}
	err := s.deps.Accounts.ResetPassword(r.Context(), req.SchoolID, req.NewPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "updated",
			"message": "Password has been updated successfully!",
		})
	case errors.Is(err, account.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, "Password is too short.")
	default:
		internalError(w, "error updating password", err)
	}
}

type feedbackRequest struct {
	Text string `json:"text"`
}

func (s *Server) addFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "feedback text is required")
		return
	}
	fb, err := s.deps.Feedback.AddFeedback(r.Context(), strings.TrimSpace(req.Text))
	if err != nil {
		internalError(w, "error saving feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}
