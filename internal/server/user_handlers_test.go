package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"kforum/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestUpdateMyProfile(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	user := createTestUser(t, db, "Old Name", "up@college.edu", "2023007001", models.RoleStudent)

	app := fiber.New()
	app.Put("/me", asUser(user.ID, s.UpdateMyProfile))

	t.Run("partial update", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/me", map[string]interface{}{
			"name": "New Name",
			"year": 3,
		}))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var updated models.User
		decodeBody(t, resp, &updated)
		if updated.Name != "New Name" || updated.Year != 3 {
			t.Errorf("got name=%q year=%d", updated.Name, updated.Year)
		}
		// Untouched fields keep their values.
		if updated.Branch != "CSE" {
			t.Errorf("branch changed unexpectedly to %q", updated.Branch)
		}
	})

	t.Run("invalid year", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPut, "/me", map[string]interface{}{
			"year": 9,
		}))
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestGetUserProfile_AnonymousPostsHidden(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	author := createTestUser(t, db, "Author", "pa@college.edu", "2023007002", models.RoleStudent)
	viewer := createTestUser(t, db, "Viewer", "pv@college.edu", "2023007003", models.RoleStudent)

	db.Create(&models.Post{
		Title: "public", Content: "c", Category: "general",
		UserID: author.ID, ModerationStatus: models.ModerationApproved,
	})
	db.Create(&models.Post{
		Title: "hidden rant", Content: "c", Category: "rants",
		IsAnonymous: true, UserID: author.ID, ModerationStatus: models.ModerationApproved,
	})

	app := fiber.New()
	app.Get("/as-viewer/:id", asUser(viewer.ID, s.GetUserProfile))
	app.Get("/as-author/:id", asUser(author.ID, s.GetUserProfile))

	fetch := func(path string) models.User {
		t.Helper()
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var u models.User
		decodeBody(t, resp, &u)
		return u
	}

	if u := fetch(fmt.Sprintf("/as-viewer/%d", author.ID)); len(u.Posts) != 1 {
		t.Errorf("viewer should see 1 post on the profile, got %d", len(u.Posts))
	}
	if u := fetch(fmt.Sprintf("/as-author/%d", author.ID)); len(u.Posts) != 2 {
		t.Errorf("author should see both posts on their own profile, got %d", len(u.Posts))
	}
}

func TestGetFeatureFlags(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	s := newTestServer(t, db, nil)
	user := createTestUser(t, db, "F", "ff@college.edu", "2023007004", models.RoleStudent)

	app := fiber.New()
	app.Get("/feature-flags", asUser(user.ID, s.GetFeatureFlags))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/feature-flags", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Flags map[string]bool `json:"flags"`
	}
	decodeBody(t, resp, &body)
	for _, flag := range []string{"attachments", "anonymous_posts", "realtime_feed"} {
		if !body.Flags[flag] {
			t.Errorf("expected %s enabled", flag)
		}
	}
}
