package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"modelhub/internal/http/middleware"
	"modelhub/internal/model"
	"modelhub/internal/store"
	"modelhub/internal/utils"
)

// Auth is the authentication collaborator: it produces the signed identity
// the CurrentUser middleware later resolves.
type Auth struct {
	Store  store.Store
	Users  *model.Descriptor
	Secret []byte
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func userPayload(rec *model.Record) gin.H {
	return gin.H{
		"id":       rec.ID(),
		"username": rec.Get("username"),
		"name":     rec.Get("name"),
		"email":    rec.Get("email"),
		"role":     rec.Get("role"),
	}
}

// POST /api/auth/login
func (a Auth) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	login := utils.TrimOrEmpty(req.Login)
	recs, err := a.Store.Select(c.Request.Context(), a.Users, store.Spec{
		Limit: 1,
		Where: store.Predicate{
			Expr: "username = ? OR email = ?",
			Args: []any{login, login},
		},
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to query user", err)
		return
	}
	if len(recs) == 0 {
		RespondError(c, http.StatusUnauthorized, "wrong login or password", nil)
		return
	}
	rec := recs[0]

	hash, _ := rec.Get("password_hash").(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		RespondError(c, http.StatusUnauthorized, "wrong login or password", nil)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": rec.ID(),
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(a.Secret)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "user "+rec.Param()+" signed in")
	c.JSON(http.StatusOK, gin.H{"token": signed, "user": userPayload(rec)})
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (a Auth) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		RespondError(c, http.StatusBadRequest, "username and password are required", nil)
		return
	}

	exists, err := a.Store.Count(c.Request.Context(), a.Users, store.Predicate{
		Expr: "username = ? OR email = ?",
		Args: []any{req.Username, req.Email},
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to check user", err)
		return
	}
	if exists > 0 {
		RespondError(c, http.StatusBadRequest, "username or email already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	rec := a.Users.New()
	rec.Set("name", req.Name)
	rec.Set("username", req.Username)
	rec.Set("email", req.Email)
	rec.Set("password_hash", string(hash))
	rec.Set("role", "user")

	tx, err := a.Store.Begin(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save user", err)
		return
	}
	if err := a.Store.Insert(c.Request.Context(), tx, rec); err != nil {
		_ = tx.Rollback()
		RespondError(c, http.StatusInternalServerError, "failed to save user", err)
		return
	}
	if err := tx.Commit(); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save user", err)
		return
	}

	utils.LogEvent(middleware.GetRequestID(c), "auth", "register", "user "+rec.Param()+" created")
	c.JSON(http.StatusCreated, gin.H{"user": userPayload(rec)})
}
