package internal

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"equiptrack-api/internal/auth"
	"equiptrack-api/internal/models"

	"golang.org/x/crypto/bcrypt"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" {
		http.Error(w, "Username is required.", http.StatusBadRequest)
		return
	}
	if !emailRe.MatchString(in.Email) {
		http.Error(w, "A valid email is required.", http.StatusBadRequest)
		return
	}
	if len(in.Password) < 6 {
		http.Error(w, "Password must be at least 6 characters.", http.StatusBadRequest)
		return
	}

	var taken bool
	err := s.DB.QueryRowContext(r.Context(),
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		in.Username, in.Email).Scan(&taken)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if taken {
		http.Error(w, "Username or email already registered.", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var u models.User
	err = s.DB.QueryRowContext(r.Context(), `
		INSERT INTO users (username, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, email, full_name, role, created_at, updated_at`,
		in.Username, in.Email, string(hash), in.FullName, models.RoleUser,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	login := strings.TrimSpace(in.LoginID())
	if login == "" || in.Password == "" {
		http.Error(w, "Login and password are required.", http.StatusBadRequest)
		return
	}

	var u models.User
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, username, email, password_hash, full_name, role, created_at, updated_at
		FROM users WHERE username = $1 OR email = $1`, login,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "Invalid credentials.", http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		http.Error(w, "Invalid credentials.", http.StatusUnauthorized)
		return
	}

	token, err := s.JWT.GenerateToken(u.ID, u.Username, u.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{AccessToken: token, User: u})
}

// Tokens are stateless, so logout is a client-side discard; the endpoint
// exists so clients get a uniform success response.
func (s *Server) logoutUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var u models.User
	err := s.DB.QueryRowContext(r.Context(), `
		SELECT id, username, email, full_name, role, created_at, updated_at
		FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, u)
}
