package rest

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of MaxFileSize for part
// headers and boundaries.
const multipartOverhead = 1 << 20

const uploadField = "file"

type signupRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type signupResponse struct {
	userResponse
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type fileResponse struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type deleteResponse struct {
	Message string `json:"message"`
	FileID  int64  `json:"file_id"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.UserName, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Filename:    f.OriginalName,
		ContentType: f.ContentType,
		Size:        f.Size,
		UploadedAt:  f.CreatedAt,
	}
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	u, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			abortWithStatus(c, http.StatusUnprocessableEntity, verr.Message)
			return
		}
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, signupResponse{userResponse: toUserResponse(u), Message: "User created successfully"})
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	t, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: t.AccessToken, TokenType: t.TokenType, ExpiresIn: t.ExpiresIn})
}

func (s *HTTPServer) me(c *gin.Context) {
	u, err := s.users.GetByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		// A valid token for a user that no longer exists.
		if errors.Is(err, common.ErrorNotFound) {
			err = common.ErrorUnauthorized
		}
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

// upload streams the multipart field "file" into storage. Fields other than
// "file" are ignored.
func (s *HTTPServer) upload(c *gin.Context) {
	limit := s.options.MaxFileSize + multipartOverhead
	if c.Request.ContentLength > limit {
		abortWithStatus(c, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity, "Expected a multipart/form-data body")
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			abortWithStatus(c, http.StatusUnprocessableEntity, "Missing form field 'file'")
			return
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				abortWithStatus(c, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			abortWithStatus(c, http.StatusUnprocessableEntity, "Malformed multipart body")
			return
		}

		// Other fields are skipped; their bytes still count toward the body cap.
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}

		f, err := s.files.Upload(c.Request.Context(), currentUserID(c), services.UploadRequest{
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Body:        cappedBody{r: part},
		})
		_ = part.Close()
		if err != nil {
			s.abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, toFileResponse(f))
		return
	}
}

func (s *HTTPServer) listFiles(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity, "skip must be an integer")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultListLimit)))
	if err != nil {
		abortWithStatus(c, http.StatusUnprocessableEntity, "limit must be an integer")
		return
	}

	files, err := s.files.List(c.Request.Context(), currentUserID(c), skip, limit)
	if err != nil {
		var verr *common.ValidationError
		if errors.As(err, &verr) {
			abortWithStatus(c, http.StatusUnprocessableEntity, verr.Message)
			return
		}
		s.abortWithError(c, err)
		return
	}

	resp := make([]fileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, toFileResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

// fileID parses the :id path parameter, aborting with 422 when invalid.
func fileID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		abortWithStatus(c, http.StatusUnprocessableEntity, "Invalid file id")
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) getFile(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	f, err := s.files.Get(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFileResponse(f))
}

func (s *HTTPServer) download(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	f, rc, err := s.files.Download(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalName})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (s *HTTPServer) deleteFile(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}

	if err := s.files.Remove(c.Request.Context(), id, currentUserID(c)); err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleteResponse{Message: "File deleted successfully", FileID: id})
}

// cappedBody reports a body that hit http.MaxBytesReader as
// common.ErrorTooLarge.
type cappedBody struct {
	r io.Reader
}

func (b cappedBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return n, common.ErrorTooLarge
	}
	return n, err
}
