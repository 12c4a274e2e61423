package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/examcore/internal/config"
	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/mansoorceksport/examcore/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadFlow(t *testing.T) {
	// 1. Setup Infrastructure
	db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	mockAuth := NewMockAuthClient()

	uploadDir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.MaxFileSize = 10
	cfg.Server.MaxFileSizeBytes = config.ResolveMaxFileSize(cfg.Server.MaxFileSize)
	cfg.Upload.Path = uploadDir
	cfg.Upload.StorageType = domain.StorageTypeLocal
	cfg.JWT.Secret = "test-secret-key-123"
	cfg.JWT.AccessTokenExpiry = time.Hour

	// 2. Initialize App
	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoDB:     db,
		RedisClient: redisClient,
		AuthClient:  mockAuth,
	})

	request := func(method, path, token string, body interface{}) *http.Response {
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, _ := http.NewRequest(method, path, bodyReader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	decode := func(resp *http.Response) map[string]interface{} {
		var out map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	// ==========================================
	// STEP 1: Seed staff users & login
	// ==========================================
	// Teacher and admin roles only exist pre-provisioned; LoginOrRegister
	// links them by email on first login.
	ctx := context.Background()
	seed := []interface{}{
		map[string]interface{}{"_id": "U1", "email": "teacher1@school.test", "name": "Teacher One", "role": domain.RoleInternalTeacher},
		map[string]interface{}{"_id": "U2", "email": "teacher2@school.test", "name": "Teacher Two", "role": domain.RoleExternalTeacher},
		map[string]interface{}{"_id": "U9", "email": "admin@school.test", "name": "Admin", "role": domain.RoleAdmin},
	}
	_, err = db.Collection("users").InsertMany(ctx, seed)
	require.NoError(t, err)

	mockAuth.AddMockUser("fb_token_t1", "fb_uid_t1", "teacher1@school.test")
	mockAuth.AddMockUser("fb_token_t2", "fb_uid_t2", "teacher2@school.test")
	mockAuth.AddMockUser("fb_token_admin", "fb_uid_admin", "admin@school.test")
	mockAuth.AddMockUser("fb_token_student", "fb_uid_student", "student@school.test")

	login := func(fbToken string) string {
		resp := request("POST", "/v1/auth/login", fbToken, nil)
		require.Equal(t, 200, resp.StatusCode)
		data := decode(resp)["data"].(map[string]interface{})
		token := data["token"].(string)
		require.NotEmpty(t, token)
		return token
	}

	teacher1Token := login("fb_token_t1")
	teacher2Token := login("fb_token_t2")
	adminToken := login("fb_token_admin")
	studentToken := login("fb_token_student") // self-registers as STUDENT

	fmt.Println("✓ Users logged in")

	// ==========================================
	// STEP 2: Teacher One creates an exam with a question
	// ==========================================
	resp := request("POST", "/v1/exams", teacher1Token, map[string]interface{}{
		"title":         "Math Final",
		"subject":       "Mathematics",
		"total_marks":   100,
		"passing_marks": 40,
	})
	require.Equal(t, 201, resp.StatusCode)
	examID := decode(resp)["data"].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, examID)

	resp = request("POST", "/v1/exams/"+examID+"/questions", teacher1Token, map[string]interface{}{
		"text":  "Sketch the graph of y = x^2.",
		"type":  domain.QuestionTypeShortAnswer,
		"marks": 10,
		"order": 1,
	})
	require.Equal(t, 201, resp.StatusCode)
	questionID := decode(resp)["data"].(map[string]interface{})["id"].(string)
	require.NotEmpty(t, questionID)

	fmt.Println("✓ Exam and question created:", examID, questionID)

	t.Run("me returns the provisioned account", func(t *testing.T) {
		resp := request("GET", "/v1/auth/me", teacher1Token, nil)
		require.Equal(t, 200, resp.StatusCode)

		data := decode(resp)["data"].(map[string]interface{})
		assert.Equal(t, "teacher1@school.test", data["email"])
		assert.Equal(t, domain.RoleInternalTeacher, data["role"])
	})

	t.Run("exam listing is scoped to the creator", func(t *testing.T) {
		resp := request("GET", "/v1/exams", teacher1Token, nil)
		require.Equal(t, 200, resp.StatusCode)
		mine := decode(resp)["data"].([]interface{})
		require.Len(t, mine, 1)
		assert.Equal(t, examID, mine[0].(map[string]interface{})["id"])

		resp = request("GET", "/v1/exams", teacher2Token, nil)
		require.Equal(t, 200, resp.StatusCode)
		assert.Empty(t, decode(resp)["data"])
	})

	uploadPath := fmt.Sprintf("/v1/uploads/exam-question-image/%s/%s", examID, questionID)
	jpegBytes := make([]byte, 2*1024*1024)

	// ==========================================
	// STEP 3: Authorization on the upload endpoint
	// ==========================================
	t.Run("unauthenticated upload is rejected", func(t *testing.T) {
		req := newImageUploadRequest(t, uploadPath, "", "photo.jpg", "image/jpeg", jpegBytes[:100])
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("student role never reaches the handler", func(t *testing.T) {
		req := newImageUploadRequest(t, uploadPath, studentToken, "photo.jpg", "image/jpeg", jpegBytes[:100])
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	t.Run("non-owner teacher is forbidden", func(t *testing.T) {
		req := newImageUploadRequest(t, uploadPath, teacher2Token, "photo.jpg", "image/jpeg", jpegBytes[:100])
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
	})

	// ==========================================
	// STEP 4: Validation
	// ==========================================
	t.Run("disallowed mime type", func(t *testing.T) {
		req := newImageUploadRequest(t, uploadPath, teacher1Token, "anim.gif", "image/gif", []byte("GIF89a"))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)

		body := decode(resp)
		assert.Equal(t, "Invalid file type. Allowed types: .jpg, .jpeg, .png, .webp", body["error"])
	})

	t.Run("oversize file", func(t *testing.T) {
		big := make([]byte, 11*1024*1024)
		req := newImageUploadRequest(t, uploadPath, teacher1Token, "huge.jpg", "image/jpeg", big)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)

		body := decode(resp)
		assert.Equal(t, "File size exceeds maximum allowed size of 10 MB", body["error"])
	})

	t.Run("file far above the limit", func(t *testing.T) {
		// Well past the limit but still under the transport body cap, so
		// the policy check answers, with the same message either way.
		huge := make([]byte, 25*1024*1024)
		req := newImageUploadRequest(t, uploadPath, teacher1Token, "massive.jpg", "image/jpeg", huge)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)

		body := decode(resp)
		assert.Equal(t, "File size exceeds maximum allowed size of 10 MB", body["error"])
	})

	t.Run("missing file part", func(t *testing.T) {
		resp := request("POST", uploadPath, teacher1Token, map[string]string{"not": "a file"})
		assert.Equal(t, 400, resp.StatusCode)
	})

	// ==========================================
	// STEP 5: Successful upload + static serving
	// ==========================================
	var imageURL string
	t.Run("owner uploads a jpeg", func(t *testing.T) {
		req := newImageUploadRequest(t, uploadPath, teacher1Token, "graph.jpg", "image/jpeg", jpegBytes)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		body := decode(resp)
		imageURL = body["imageUrl"].(string)
		assert.Regexp(t,
			fmt.Sprintf(`^/uploads/exams/%s/questions/%s/image-\d+\.jpg$`, examID, questionID),
			imageURL)
		assert.Regexp(t, `^image-\d+\.jpg$`, body["fileName"])

		// The bytes must be on disk where savedPath claims.
		data, err := os.ReadFile(body["savedPath"].(string))
		require.NoError(t, err)
		assert.Len(t, data, len(jpegBytes))
		assert.Contains(t, body["savedPath"].(string), filepath.Join(uploadDir, "exams", examID))
	})

	t.Run("uploaded file is served under /uploads", func(t *testing.T) {
		req, _ := http.NewRequest("GET", imageURL, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("admin uploads via the question-only endpoint", func(t *testing.T) {
		req := newImageUploadRequest(t, "/v1/uploads/question-image/"+questionID, adminToken, "extra.png", "image/png", jpegBytes[:4096])
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		body := decode(resp)
		assert.Regexp(t,
			fmt.Sprintf(`^/uploads/exams/%s/questions/%s/image-\d+\.png$`, examID, questionID),
			body["imageUrl"])
	})

	// ==========================================
	// STEP 6: Attach the URL to the question record
	// ==========================================
	t.Run("base64 payload is rejected", func(t *testing.T) {
		resp := request("PATCH", "/v1/questions/"+questionID+"/image", teacher1Token, map[string]string{
			"imageUrl": "data:image/png;base64,iVBORw0KGgo=",
		})
		assert.Equal(t, 400, resp.StatusCode)
		body := decode(resp)
		assert.Equal(t, "Base64 encoded images are not allowed. Use the image upload endpoint first.", body["error"])
	})

	t.Run("missing imageUrl is rejected", func(t *testing.T) {
		resp := request("PATCH", "/v1/questions/"+questionID+"/image", teacher1Token, map[string]string{})
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("owner attaches the uploaded url", func(t *testing.T) {
		resp := request("PATCH", "/v1/questions/"+questionID+"/image", teacher1Token, map[string]string{
			"imageUrl": imageURL,
		})
		require.Equal(t, 200, resp.StatusCode)

		data := decode(resp)["data"].(map[string]interface{})
		assert.Equal(t, imageURL, data["image_url"])
	})

	t.Run("exam detail reflects the image", func(t *testing.T) {
		resp := request("GET", "/v1/exams/"+examID, studentToken, nil)
		require.Equal(t, 200, resp.StatusCode)

		data := decode(resp)["data"].(map[string]interface{})
		questions := data["questions"].([]interface{})
		require.Len(t, questions, 1)
		assert.Equal(t, imageURL, questions[0].(map[string]interface{})["image_url"])
	})

	// ==========================================
	// STEP 7: Retry with the same correlation id replays the response
	// ==========================================
	t.Run("idempotent upload replay", func(t *testing.T) {
		first := newImageUploadRequest(t, uploadPath, teacher1Token, "retry.png", "image/png", jpegBytes[:256])
		first.Header.Set("X-Correlation-ID", "corr-123")
		resp1, err := app.Test(first, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp1.StatusCode)
		body1, _ := io.ReadAll(resp1.Body)

		// The async cache write races the retry; give miniredis a beat.
		require.Eventually(t, func() bool {
			return mr.Exists("examcore:idempotency:corr-123")
		}, time.Second, 10*time.Millisecond)

		second := newImageUploadRequest(t, uploadPath, teacher1Token, "retry.png", "image/png", jpegBytes[:256])
		second.Header.Set("X-Correlation-ID", "corr-123")
		resp2, err := app.Test(second, -1)
		require.NoError(t, err)
		require.Equal(t, 200, resp2.StatusCode)
		body2, _ := io.ReadAll(resp2.Body)

		assert.Equal(t, "true", resp2.Header.Get("X-Idempotent-Replay"))
		assert.Equal(t, body1, body2, "replay must return the first descriptor, not save a new file")
	})

	fmt.Println("✓ Upload flow complete")
}
