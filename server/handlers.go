package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/hupe1980/contactbook"
)

const maxBodyBytes = 1 << 20

type contactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	NewEmail string `json:"new_email"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	p, err := s.book.List(r.Context(), r.URL.Query().Get("page"))
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := s.book.Search(r.Context(), q.Get("key"), q.Get("page"))
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createContact(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	c, err := s.book.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) renameContact(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	c, err := s.book.Rename(r.Context(), req.Email, req.Name)
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) changeEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	c, err := s.book.ChangeEmail(r.Context(), req.Email, req.NewEmail)
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "missing email parameter")
		return
	}
	c, err := s.book.Delete(r.Context(), email)
	if err != nil {
		s.writeBookError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (contactRequest, bool) {
	var req contactRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return contactRequest{}, false
	}
	return req, true
}

// writeBookError maps Book errors onto HTTP status codes.
func (s *Server) writeBookError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *contactbook.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ve.Fields)
	case errors.Is(err, contactbook.ErrNotFound):
		writeError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, contactbook.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, contactbook.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contactbook.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "contact book closed")
	default:
		s.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
