package server

import (
	"net/http"
	"testing"
	"time"

	"kforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestRegister(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Post("/register", s.Register)

	validBody := func() map[string]interface{} {
		return map[string]interface{}{
			"name":       "Asha Kulkarni",
			"email":      "asha@college.edu",
			"password":   "Password123!@#",
			"student_id": "2023001234",
			"year":       2,
			"branch":     "CSE",
		}
	}

	t.Run("success stores unverified user with OTP", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", validBody()))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var user models.User
		if err := db.Where("email = ?", "asha@college.edu").First(&user).Error; err != nil {
			t.Fatalf("user not created: %v", err)
		}
		if user.IsVerified {
			t.Error("new accounts must start unverified")
		}
		if len(user.VerificationOTP) != 6 {
			t.Errorf("expected 6-digit OTP, got %q", user.VerificationOTP)
		}
		if user.OTPExpiresAt == nil || !user.OTPExpiresAt.After(time.Now()) {
			t.Error("OTP expiry not set in the future")
		}
		if user.Password == "Password123!@#" {
			t.Error("password stored in plaintext")
		}
		if user.Role != models.RoleStudent {
			t.Errorf("expected student role, got %q", user.Role)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := validBody()
		body["student_id"] = "2023009999"
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", body))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("duplicate student ID", func(t *testing.T) {
		body := validBody()
		body["email"] = "other@college.edu"
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", body))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects non-institutional email", func(t *testing.T) {
		body := validBody()
		body["email"] = "asha@gmail.com"
		body["student_id"] = "2023005678"
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", body))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects weak password", func(t *testing.T) {
		body := validBody()
		body["email"] = "weak@college.edu"
		body["student_id"] = "2023005679"
		body["password"] = "short"
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", body))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestVerifyOTP(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Post("/register", s.Register)
	app.Post("/verify-otp", s.VerifyOTP)

	resp, _ := app.Test(jsonRequest(http.MethodPost, "/register", map[string]interface{}{
		"name":       "Ravi Menon",
		"email":      "ravi@college.edu",
		"password":   "Password123!@#",
		"student_id": "2023004321",
		"year":       3,
		"branch":     "ECE",
	}))
	_ = resp.Body.Close()

	var user models.User
	if err := db.Where("email = ?", "ravi@college.edu").First(&user).Error; err != nil {
		t.Fatalf("registered user missing: %v", err)
	}

	t.Run("wrong code", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/verify-otp", map[string]string{
			"email": "ravi@college.edu",
			"code":  "000000x",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("correct code verifies and returns token", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/verify-otp", map[string]string{
			"email": "ravi@college.edu",
			"code":  user.VerificationOTP,
		}))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decodeBody(t, resp, &body)
		if body.Token == "" {
			t.Error("expected a JWT in the response")
		}
		if !body.User.IsVerified {
			t.Error("user not marked verified")
		}

		var stored models.User
		db.First(&stored, user.ID)
		if stored.VerificationOTP != "" || stored.OTPExpiresAt != nil {
			t.Error("OTP not cleared after redemption")
		}
	})

	t.Run("code cannot be replayed", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/verify-otp", map[string]string{
			"email": "ravi@college.edu",
			"code":  user.VerificationOTP,
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 on replay, got %d", resp.StatusCode)
		}
	})

	t.Run("expired code", func(t *testing.T) {
		expired := createTestUser(t, db, "Late", "late@college.edu", "2023007777", models.RoleStudent)
		past := time.Now().Add(-time.Minute)
		db.Model(expired).Updates(map[string]interface{}{
			"is_verified":      false,
			"verification_otp": "123456",
			"otp_expires_at":   past,
		})

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/verify-otp", map[string]string{
			"email": "late@college.edu",
			"code":  "123456",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401 for expired code, got %d", resp.StatusCode)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Post("/login", s.Login)

	user := createTestUser(t, db, "Priya", "priya@college.edu", "2023001111", models.RoleStudent)

	t.Run("success", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "priya@college.edu",
			"password": "Password123!@#",
		}))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var body struct {
			Token string `json:"token"`
		}
		decodeBody(t, resp, &body)
		if body.Token == "" {
			t.Error("expected a JWT in the response")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "priya@college.edu",
			"password": "WrongPassword1!",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "nobody@college.edu",
			"password": "Password123!@#",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("unverified account gets a fresh code", func(t *testing.T) {
		db.Model(user).Update("is_verified", false)

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "priya@college.edu",
			"password": "Password123!@#",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}

		var stored models.User
		db.First(&stored, user.ID)
		if len(stored.VerificationOTP) != 6 {
			t.Error("expected a re-issued OTP on unverified login")
		}
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Post("/forgot-password", s.ForgotPassword)
	app.Post("/reset-password", s.ResetPassword)
	app.Post("/login", s.Login)

	user := createTestUser(t, db, "Dev", "dev@college.edu", "2023002222", models.RoleStudent)

	t.Run("forgot-password response is uniform for unknown accounts", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/forgot-password", map[string]string{
			"email": "ghost@college.edu",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 for unknown email, got %d", resp.StatusCode)
		}
	})

	t.Run("full reset flow", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/forgot-password", map[string]string{
			"email": "dev@college.edu",
		}))
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("forgot-password failed: %d", resp.StatusCode)
		}

		var stored models.User
		db.First(&stored, user.ID)
		if len(stored.VerificationOTP) != 6 {
			t.Fatal("expected a reset code on the account")
		}

		resp, _ = app.Test(jsonRequest(http.MethodPost, "/reset-password", map[string]string{
			"email":        "dev@college.edu",
			"code":         stored.VerificationOTP,
			"new_password": "NewPassword456!@#",
		}))
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("reset-password failed: %d", resp.StatusCode)
		}

		resp, _ = app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "dev@college.edu",
			"password": "NewPassword456!@#",
		}))
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("login with new password failed: %d", resp.StatusCode)
		}

		resp, _ = app.Test(jsonRequest(http.MethodPost, "/login", map[string]string{
			"email":    "dev@college.edu",
			"password": "Password123!@#",
		}))
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("old password still accepted: %d", resp.StatusCode)
		}
	})

	t.Run("reset rejects bad code", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/reset-password", map[string]string{
			"email":        "dev@college.edu",
			"code":         "999999",
			"new_password": "AnotherPass789!@#",
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestLogoutWithoutRedis(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	app := fiber.New()
	app.Post("/logout", s.Logout)

	// Without Redis there is no blacklist to write; logout still succeeds.
	resp, _ := app.Test(jsonRequest(http.MethodPost, "/logout", nil))
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
