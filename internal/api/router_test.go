package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nkallio/cardwall/internal/api"
	"github.com/nkallio/cardwall/internal/auth"
	"github.com/nkallio/cardwall/internal/config"
	"github.com/nkallio/cardwall/internal/database"
	"github.com/nkallio/cardwall/internal/models"
	"github.com/nkallio/cardwall/internal/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AllowedOrigin: "http://localhost:5173",
		AppEnv:        "test",
	}
	tokens := auth.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret)

	router := api.NewRouter(cfg, tokens,
		services.NewUserService(db),
		services.NewContainerService(db),
		services.NewCardService(db),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		db.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": "hunter22"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register returned %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	var body struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatal("login returned no access token")
	}
	return body.AccessToken
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	creds := map[string]string{"username": "anna", "password": "hunter22"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if !body.OK || body.Message != "User created!" {
		t.Errorf("body = %+v, want ok with %q", body, "User created!")
	}

	t.Run("duplicate username", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", creds)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		var body struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.OK || body.Error != "Username is already taken. Please log in!" {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "",
			map[string]string{"username": "bert"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Please fill in all fields!" {
			t.Errorf("error = %q", body.Error)
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	creds := map[string]string{"username": "anna", "password": "hunter22"}
	doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", creds)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &body)
	if !body.OK || body.AccessToken == "" {
		t.Errorf("body = %+v, want ok with access token", body)
	}

	var refresh *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refreshToken" {
			refresh = c
		}
	}
	if refresh == nil {
		t.Fatal("login did not set refreshToken cookie")
	}
	if !refresh.HttpOnly {
		t.Error("refresh cookie is not HttpOnly")
	}
	if refresh.SameSite != http.SameSiteStrictMode {
		t.Errorf("refresh cookie SameSite = %v, want Strict", refresh.SameSite)
	}
	if refresh.Value == body.AccessToken {
		t.Error("refresh cookie carries the access token")
	}

	t.Run("wrong password", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
			map[string]string{"username": "anna", "password": "wrong"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Incorrect username or password!" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "",
			map[string]string{"username": "nobody", "password": "hunter22"})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Incorrect username or password!" {
			t.Errorf("error = %q", body.Error)
		}
	})
}

func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t)
	creds := map[string]string{"username": "anna", "password": "hunter22"}
	doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", creds)
	loginResp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", creds)

	var refresh *http.Cookie
	for _, c := range loginResp.Cookies() {
		if c.Name == "refreshToken" {
			refresh = c
		}
	}
	if refresh == nil {
		t.Fatal("login did not set refreshToken cookie")
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/refresh", nil)
	req.AddCookie(refresh)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK          bool   `json:"ok"`
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &body)
	if !body.OK || body.AccessToken == "" {
		t.Errorf("body = %+v, want ok with access token", body)
	}

	// The fresh access token must open protected routes.
	profile := doJSON(t, http.MethodGet, srv.URL+"/api/profile", body.AccessToken, nil)
	if profile.StatusCode != http.StatusOK {
		t.Errorf("profile with refreshed token = %d, want 200", profile.StatusCode)
	}

	t.Run("missing cookie", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/refresh", "", nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Invalid refresh token" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("garbage cookie", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "not-a-token"})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/logout", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Logged out" {
		t.Errorf("message = %q, want %q", body.Message, "Logged out")
	}

	for _, c := range resp.Cookies() {
		if c.Name == "refreshToken" {
			if c.Value != "" || c.MaxAge >= 0 {
				t.Errorf("cookie not expired: value=%q maxAge=%d", c.Value, c.MaxAge)
			}
			return
		}
	}
	t.Error("logout did not touch the refreshToken cookie")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/profile", "/api/containers", "/api/cards"} {
		resp := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "No token, authorization denied" {
			t.Errorf("GET %s error = %q", path, body.Error)
		}
	}

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d, want 401", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "Invalid token" {
		t.Errorf("error = %q, want %q", body.Error, "Invalid token")
	}
}

func TestUserAreaEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "anna")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/user", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if body.Message != "Welcome to the user area" {
		t.Errorf("message = %q", body.Message)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/user", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", resp.StatusCode)
	}
}

func TestProfileEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "anna")

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/profile", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]interface{}
	decodeBody(t, resp, &body)
	if body["username"] != "anna" {
		t.Errorf("username = %v, want anna", body["username"])
	}
	for _, key := range []string{"passwordHash", "password_hash", "password"} {
		if _, leaked := body[key]; leaked {
			t.Errorf("profile leaks %q", key)
		}
	}
}

func TestContainerEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "anna")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/containers", token,
		map[string]string{"header": "Todo", "headerColor": "blue"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d, want 200", resp.StatusCode)
	}
	var created models.Container
	decodeBody(t, resp, &created)
	if created.ID == "" || created.Header != "Todo" || created.Index != 0 {
		t.Fatalf("created = %+v", created)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/containers", token,
		map[string]string{"header": "Done"})
	var second models.Container
	decodeBody(t, resp, &second)
	if second.Index != 1 {
		t.Errorf("second container index = %d, want 1", second.Index)
	}
	if second.HeaderColor != "white" {
		t.Errorf("default headerColor = %q, want white", second.HeaderColor)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/containers", token, nil)
	var list []models.Container
	decodeBody(t, resp, &list)
	if len(list) != 2 {
		t.Fatalf("len(list) = %d, want 2", len(list))
	}

	// Patch only the header; color and index must survive.
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/containers/"+created.ID, token,
		map[string]string{"header": "Backlog"})
	var patched models.Container
	decodeBody(t, resp, &patched)
	if patched.Header != "Backlog" || patched.HeaderColor != "blue" || patched.Index != 0 {
		t.Errorf("patched = %+v", patched)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/containers/reorder", token,
		map[string]interface{}{"items": []models.IndexUpdate{
			{ID: second.ID, Index: 0},
			{ID: created.ID, Index: 1},
		}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/containers", token, nil)
	decodeBody(t, resp, &list)
	if list[0].ID != second.ID {
		t.Errorf("reorder not applied: first = %s", list[0].Header)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/containers/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}
	var delBody struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &delBody)
	if delBody.Message != "Container and its cards deleted" {
		t.Errorf("message = %q", delBody.Message)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/containers/"+created.ID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", resp.StatusCode)
	}
	var nfBody struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &nfBody)
	if nfBody.Error != "Container not found" {
		t.Errorf("error = %q", nfBody.Error)
	}
}

func TestCardEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "anna")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/containers", token,
		map[string]string{"header": "Todo"})
	var container models.Container
	decodeBody(t, resp, &container)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cards", token, map[string]interface{}{
		"id":                "card-1",
		"title":             "Fix login",
		"parentContainerId": container.ID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d, want 200", resp.StatusCode)
	}
	var created models.Card
	decodeBody(t, resp, &created)
	if created.ID != "card-1" || created.Index != 0 {
		t.Fatalf("created = %+v", created)
	}
	if created.CreatedTimestamp.IsZero() {
		t.Error("createdTimestamp not set")
	}

	t.Run("re-parent into missing container", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/api/cards/card-1", token,
			map[string]string{"parentContainerId": "missing"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Container not found" {
			t.Errorf("error = %q", body.Error)
		}
	})

	t.Run("create into missing container", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/cards", token, map[string]interface{}{
			"id": "card-x", "title": "orphan", "parentContainerId": "missing",
		})
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cards/card-1", token,
		map[string]string{"title": "Fix login flow", "cardColor": "red"})
	var patched models.Card
	decodeBody(t, resp, &patched)
	if patched.Title != "Fix login flow" || patched.CardColor != "red" {
		t.Errorf("patched = %+v", patched)
	}

	// Comment lifecycle through the wire.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/cards/card-1/comments", token,
		map[string]string{"commentId": "m1", "text": "looks odd", "user": "anna"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add comment status = %d, want 200", resp.StatusCode)
	}
	var comment models.Comment
	decodeBody(t, resp, &comment)
	if comment.CommentID != "m1" || comment.Edited {
		t.Errorf("comment = %+v", comment)
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cards/card-1/comments/m1", token,
		map[string]interface{}{"text": "resolved", "edited": true})
	decodeBody(t, resp, &comment)
	if comment.Text != "resolved" || !comment.Edited {
		t.Errorf("updated comment = %+v", comment)
	}

	t.Run("update missing comment", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/api/cards/card-1/comments/nope", token,
			map[string]string{"text": "x"})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		if body.Error != "Comment not found" {
			t.Errorf("error = %q", body.Error)
		}
	})

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/cards/card-1/comments/m1", token, nil)
	var msgBody struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &msgBody)
	if msgBody.Message != "Comment removed" {
		t.Errorf("message = %q", msgBody.Message)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards/card-1", token, nil)
	var fetched models.Card
	decodeBody(t, resp, &fetched)
	if len(fetched.Comments) != 0 {
		t.Errorf("comments after removal = %d, want 0", len(fetched.Comments))
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/cards/card-1", token, nil)
	decodeBody(t, resp, &msgBody)
	if msgBody.Message != "Card deleted" {
		t.Errorf("message = %q", msgBody.Message)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards/card-1", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted card = %d, want 404", resp.StatusCode)
	}
}

func TestCardsIsolatedBetweenUsers(t *testing.T) {
	srv := newTestServer(t)
	annaToken := registerAndLogin(t, srv, "anna")
	bertToken := registerAndLogin(t, srv, "bert")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/containers", annaToken,
		map[string]string{"header": "Todo"})
	var container models.Container
	decodeBody(t, resp, &container)
	doJSON(t, http.MethodPost, srv.URL+"/api/cards", annaToken, map[string]interface{}{
		"id": "k1", "title": "secret", "parentContainerId": container.ID,
	})

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards", bertToken, nil)
	var cards []models.Card
	decodeBody(t, resp, &cards)
	if len(cards) != 0 {
		t.Errorf("user B lists %d of user A's cards, want 0", len(cards))
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards/k1", bertToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user get = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/cards/k1", bertToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-user delete = %d, want 404", resp.StatusCode)
	}

	// The card must still be there for its owner.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards/k1", annaToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner get after foreign delete attempt = %d, want 200", resp.StatusCode)
	}
}

func TestCardReorderEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "anna")

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/containers", token,
		map[string]string{"header": "Todo"})
	var container models.Container
	decodeBody(t, resp, &container)

	for _, id := range []string{"a", "b", "c"} {
		doJSON(t, http.MethodPost, srv.URL+"/api/cards", token, map[string]interface{}{
			"id": id, "title": id, "parentContainerId": container.ID,
		})
	}

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cards/reorder", token,
		map[string]interface{}{"items": []models.IndexUpdate{
			{ID: "c", Index: 0},
			{ID: "a", Index: 1},
			{ID: "b", Index: 2},
		}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/cards", token, nil)
	var cards []models.Card
	decodeBody(t, resp, &cards)
	want := []string{"c", "a", "b"}
	for i, card := range cards {
		if card.ID != want[i] {
			t.Errorf("cards[%d] = %q, want %q", i, card.ID, want[i])
		}
	}
}
