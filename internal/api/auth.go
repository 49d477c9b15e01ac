package api

import (
	"log/slog"
	"net/http"

	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/session"
)

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FullName    string `json:"fullName"`
	CompanyName string `json:"companyName"`
}

func (req *registerRequest) validate() map[string]string {
	fields := make(map[string]string)
	if req.Username == "" {
		fields["username"] = "username is required"
	}
	if req.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Register creates a new user account. Passwords are stored verbatim; the
// response never carries the credential field.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if fields := req.validate(); fields != nil {
		fieldErrors(w, fields)
		return
	}

	existing, err := h.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if existing != nil {
		Error(w, http.StatusBadRequest, "Username already exists")
		return
	}

	user, err := h.repo.CreateUser(r.Context(), domain.NewUser{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	JSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login compares plaintext credentials and establishes a session on match.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Username == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil || user.Password != req.Password {
		Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := h.sessions.Create(user.ID)
	session.SetCookie(w, token, h.sessions.TTL(), h.isDev)

	slog.Info("User logged in", "user_id", user.ID)
	JSON(w, http.StatusOK, user)
}

// Me returns the authenticated user's record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.repo.GetUserByID(r.Context(), userID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "User not found")
		return
	}
	JSON(w, http.StatusOK, user)
}

// Logout destroys the caller's session and expires the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	token := session.TokenFromRequest(r)
	if !h.sessions.Destroy(token) {
		Error(w, http.StatusInternalServerError, "Failed to logout")
		return
	}
	session.ClearCookie(w, h.isDev)
	JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

type onboardingRequest struct {
	Step int               `json:"step"`
	Data map[string]string `json:"data"`
}

// onboardingSteps is the number of wizard steps; completing the last one
// marks onboarding finished.
const onboardingSteps = 4

// Onboarding records one wizard step: profile fields are merged into the
// user and the step index advances.
func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req onboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if req.Step < 1 || req.Step > onboardingSteps {
		fieldErrors(w, map[string]string{"step": "step must be between 1 and 4"})
		return
	}

	upd := domain.UserUpdate{}
	if v, ok := req.Data["fullName"]; ok {
		upd.FullName = &v
	}
	if v, ok := req.Data["companyName"]; ok {
		upd.CompanyName = &v
	}
	if v, ok := req.Data["industry"]; ok {
		upd.Industry = &v
	}
	if v, ok := req.Data["teamSize"]; ok {
		upd.TeamSize = &v
	}
	if v, ok := req.Data["aiExperienceLevel"]; ok {
		upd.AIExperienceLevel = &v
	}

	nextStep := req.Step + 1
	upd.OnboardingStep = &nextStep
	if req.Step == onboardingSteps {
		completed := true
		upd.OnboardingCompleted = &completed
	}

	user, err := h.repo.UpdateUser(r.Context(), userID, upd)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "User not found")
		return
	}
	JSON(w, http.StatusOK, user)
}
