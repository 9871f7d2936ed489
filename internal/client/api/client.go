package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/gophgram/pkg/api"
)

// SessionCookie имя cookie, в которой сервер отдает токен сессии
const SessionCookie = "token"

// File изображение для multipart загрузки
type File struct {
	Data io.Reader
	Name string
}

// Client представляет HTTP клиент для взаимодействия с сервером.
// Токен сессии берется из cookie ответа и дополнительно
// отправляется в заголовке Authorization, чтобы переживать перезапуск CLI.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	mu         sync.RWMutex
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Token returns current session token, empty when logged out
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken restores a saved session token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Signup регистрирует нового пользователя. avatar может быть nil
func (c *Client) Signup(ctx context.Context, req api.SignupRequest, avatar *File) (*api.UserProfile, error) {
	var resp api.AuthResponse
	fields := map[string]string{
		"email":    req.Email,
		"password": req.Password,
		"username": req.Username,
	}
	if err := c.send(ctx, http.MethodPost, "/auth/signup", req, fields, "avatar", avatar, &resp); err != nil {
		return nil, fmt.Errorf("signup request failed: %w", err)
	}
	return &resp.User, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.UserProfile, error) {
	var resp api.AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp.User, nil
}

// Logout завершает сессию. Локальный токен сбрасывается в любом случае
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.UserProfile, error) {
	var resp api.AuthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp.User, nil
}

// UpdateMe обновляет профиль. avatar может быть nil
func (c *Client) UpdateMe(ctx context.Context, req api.UpdateProfileRequest, avatar *File) (*api.UserProfile, error) {
	var resp api.AuthResponse
	fields := map[string]string{}
	if req.Username != nil {
		fields["username"] = *req.Username
	}
	if err := c.send(ctx, http.MethodPut, "/auth/me", req, fields, "avatar", avatar, &resp); err != nil {
		return nil, fmt.Errorf("update profile request failed: %w", err)
	}
	return &resp.User, nil
}

// ListPosts возвращает ленту, новые посты первыми
func (c *Client) ListPosts(ctx context.Context) ([]api.Post, error) {
	var resp api.PostListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/posts", nil, &resp); err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	return resp.Posts, nil
}

// GetPost возвращает пост по ID
func (c *Client) GetPost(ctx context.Context, id string) (*api.Post, error) {
	var resp api.PostResponse
	if err := c.doRequest(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get post request failed: %w", err)
	}
	return &resp.Post, nil
}

// CreatePost создает пост. image может быть nil
func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest, image *File) (*api.Post, error) {
	var resp api.PostResponse
	fields := map[string]string{"title": req.Title, "content": req.Content}
	if err := c.send(ctx, http.MethodPost, "/posts", req, fields, "image", image, &resp); err != nil {
		return nil, fmt.Errorf("create post request failed: %w", err)
	}
	return &resp.Post, nil
}

// UpdatePost частично обновляет пост
func (c *Client) UpdatePost(ctx context.Context, id string, req api.UpdatePostRequest, image *File) (*api.Post, error) {
	var resp api.PostResponse
	fields := map[string]string{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		fields["content"] = *req.Content
	}
	if err := c.send(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), req, fields, "image", image, &resp); err != nil {
		return nil, fmt.Errorf("update post request failed: %w", err)
	}
	return &resp.Post, nil
}

// DeletePost удаляет пост вместе с комментариями
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete post request failed: %w", err)
	}
	return nil
}

// LikePost переключает лайк текущего пользователя на посте
func (c *Client) LikePost(ctx context.Context, id string) (*api.LikeResponse, error) {
	var resp api.LikeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/posts/"+url.PathEscape(id)+"/like", nil, &resp); err != nil {
		return nil, fmt.Errorf("like post request failed: %w", err)
	}
	return &resp, nil
}

// ListComments возвращает комментарии поста, новые первыми
func (c *Client) ListComments(ctx context.Context, postID string) ([]api.Comment, error) {
	var resp api.CommentListResponse
	if err := c.doRequest(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments", nil, &resp); err != nil {
		return nil, fmt.Errorf("list comments request failed: %w", err)
	}
	return resp.Comments, nil
}

// CountComments возвращает количество комментариев поста
func (c *Client) CountComments(ctx context.Context, postID string) (int, error) {
	var resp api.CountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID)+"/comments/count", nil, &resp); err != nil {
		return 0, fmt.Errorf("count comments request failed: %w", err)
	}
	return resp.Count, nil
}

// CreateComment добавляет комментарий к посту
func (c *Client) CreateComment(ctx context.Context, postID string, req api.CreateCommentRequest) (*api.Comment, error) {
	var resp api.CommentResponse
	if err := c.doRequest(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", req, &resp); err != nil {
		return nil, fmt.Errorf("create comment request failed: %w", err)
	}
	return &resp.Comment, nil
}

// UpdateComment изменяет текст комментария
func (c *Client) UpdateComment(ctx context.Context, id string, req api.UpdateCommentRequest) (*api.Comment, error) {
	var resp api.CommentResponse
	if err := c.doRequest(ctx, http.MethodPut, "/comments/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update comment request failed: %w", err)
	}
	return &resp.Comment, nil
}

// DeleteComment удаляет комментарий
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/comments/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete comment request failed: %w", err)
	}
	return nil
}

// LikeComment переключает лайк текущего пользователя на комментарии
func (c *Client) LikeComment(ctx context.Context, id string) (*api.LikeResponse, error) {
	var resp api.LikeResponse
	if err := c.doRequest(ctx, http.MethodPost, "/comments/"+url.PathEscape(id)+"/like", nil, &resp); err != nil {
		return nil, fmt.Errorf("like comment request failed: %w", err)
	}
	return &resp, nil
}

// send отправляет JSON, либо multipart форму если есть файл
func (c *Client) send(ctx context.Context, method, path string, body any, fields map[string]string, fileField string, file *File, result any) error {
	if file == nil || file.Data == nil {
		return c.doRequest(ctx, method, path, body, result)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}
	name := file.Name
	if name == "" {
		name = fileField
	}
	part, err := mw.CreateFormFile(fileField, name)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Data); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return c.do(ctx, method, path, &buf, mw.FormDataContentType(), result)
}

// doRequest выполняет HTTP запрос с JSON телом
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, bodyReader, contentType, result)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.captureToken(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// captureToken запоминает токен из Set-Cookie, удаление cookie сбрасывает его
func (c *Client) captureToken(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		if cookie.Name != SessionCookie {
			continue
		}
		if cookie.MaxAge < 0 || cookie.Value == "" {
			c.SetToken("")
		} else {
			c.SetToken(cookie.Value)
		}
	}
}
