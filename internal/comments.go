package internal

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"equiptrack-api/internal/auth"
	"equiptrack-api/internal/models"

	"github.com/go-chi/chi/v5"
)

// commentCount returns the current number of comments on a record, used for
// the count broadcast after every mutation.
func (s *Server) commentCount(r *http.Request, equipmentID int64) int64 {
	var count int64
	err := s.DB.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM comments WHERE equipment_id = $1`, equipmentID).Scan(&count)
	if err != nil {
		return 0
	}
	return count
}

func (s *Server) equipmentExists(r *http.Request, equipmentID int64) (bool, error) {
	var id int64
	err := s.DB.QueryRowContext(r.Context(),
		`SELECT id FROM equipment WHERE id = $1`, equipmentID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LIST comments for one equipment record, newest first
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid equipment id", http.StatusBadRequest)
		return
	}

	exists, err := s.equipmentExists(r, equipmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "equipment not found", http.StatusNotFound)
		return
	}

	rows, err := s.DB.QueryContext(r.Context(), `
		SELECT c.id, c.equipment_id, c.user_id, u.username, c.comment_text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.equipment_id = $1
		ORDER BY c.created_at DESC, c.id DESC`, equipmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.EquipmentID, &c.UserID, &c.Username, &c.CommentText, &c.CreatedAt); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var in models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	in.CommentText = strings.TrimSpace(in.CommentText)
	if in.EquipmentID <= 0 {
		http.Error(w, "equipment_id is required", http.StatusBadRequest)
		return
	}
	if in.CommentText == "" {
		http.Error(w, "comment_text is required", http.StatusBadRequest)
		return
	}

	exists, err := s.equipmentExists(r, in.EquipmentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !exists {
		http.Error(w, "equipment not found", http.StatusNotFound)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	claims := auth.ClaimsFromContext(r.Context())

	var c models.Comment
	err = s.DB.QueryRowContext(r.Context(), `
		INSERT INTO comments (equipment_id, user_id, comment_text)
		VALUES ($1, $2, $3)
		RETURNING id, equipment_id, user_id, comment_text, created_at`,
		in.EquipmentID, userID, in.CommentText,
	).Scan(&c.ID, &c.EquipmentID, &c.UserID, &c.CommentText, &c.CreatedAt)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if claims != nil {
		c.Username = claims.Username
	}

	s.Hub.BroadcastNewComment(c.EquipmentID, c)
	s.Hub.BroadcastCommentCount(c.EquipmentID, s.commentCount(r, c.EquipmentID))

	writeJSON(w, http.StatusCreated, c)
}

// DELETE comment: the author or an admin only
func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	var ownerID, equipmentID int64
	err = s.DB.QueryRowContext(r.Context(),
		`SELECT user_id, equipment_id FROM comments WHERE id = $1`, commentID).
		Scan(&ownerID, &equipmentID)
	if err == sql.ErrNoRows {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	role := auth.RoleFromContext(r.Context())
	if ownerID != userID && role != models.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if _, err := s.DB.ExecContext(r.Context(), `DELETE FROM comments WHERE id = $1`, commentID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Hub.BroadcastCommentDeleted(commentID, equipmentID)
	s.Hub.BroadcastCommentCount(equipmentID, s.commentCount(r, equipmentID))

	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted."})
}
