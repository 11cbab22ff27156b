package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/quanan-pos/api/internal/database"
	"github.com/quanan-pos/api/internal/enum"
)

// EmployeeStore defines the database methods needed by employee handlers.
type EmployeeStore interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (database.User, error)
	LinkEmployee(ctx context.Context, arg database.LinkEmployeeParams) (database.EmployeeManager, error)
	ListEmployees(ctx context.Context, ownerID uuid.UUID) ([]database.ListEmployeesRow, error)
	UnlinkEmployee(ctx context.Context, arg database.UnlinkEmployeeParams) (int64, error)
}

// EmployeeHandler handles staff management. The router restricts these
// routes to owners, so the resolved tenant is always the caller itself.
type EmployeeHandler struct {
	store EmployeeStore
}

func NewEmployeeHandler(store EmployeeStore) *EmployeeHandler {
	return &EmployeeHandler{store: store}
}

func (h *EmployeeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Delete("/{id}", h.Delete)
}

type createEmployeeRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Title    string `json:"title"`
}

type employeeResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
	Title string    `json:"title,omitempty"`
}

// Create registers an employee account and links it to the owner's store.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.Email == "" {
		fields["email"] = "email is required"
	}
	if len(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		respondValidation(w, fields)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: hash password: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := h.store.CreateUser(r.Context(), database.CreateUserParams{
		Email:        req.Email,
		Phone:        optionalText(req.Phone),
		PasswordHash: string(hash),
		Name:         req.Name,
		APIKey:       uuid.NewString(),
		Role:         enum.UserRoleEmployee,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			respondValidation(w, map[string]string{"email": "email is already registered"})
			return
		}
		log.Printf("ERROR: create employee user: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := h.store.LinkEmployee(r.Context(), database.LinkEmployeeParams{
		OwnerID:    ownerID,
		EmployeeID: user.ID,
		Title:      optionalText(req.Title),
	}); err != nil {
		log.Printf("ERROR: link employee: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respond(w, http.StatusCreated, "employee created", employeeResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone.String,
		Title: req.Title,
	})
}

func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	employees, err := h.store.ListEmployees(r.Context(), ownerID)
	if err != nil {
		log.Printf("ERROR: list employees: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]employeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = employeeResponse{
			ID:    e.ID,
			Name:  e.Name,
			Email: e.Email,
			Phone: e.Phone.String,
			Title: e.Title.String,
		}
	}

	respond(w, http.StatusOK, "employees", resp)
}

// Delete unlinks the employee from the store. The user account stays; only
// the tenant association goes away.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid employee id")
		return
	}

	n, err := h.store.UnlinkEmployee(r.Context(), database.UnlinkEmployeeParams{
		OwnerID:    ownerID,
		EmployeeID: id,
	})
	if err != nil {
		log.Printf("ERROR: unlink employee: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if n == 0 {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	respond(w, http.StatusOK, "employee removed", nil)
}
