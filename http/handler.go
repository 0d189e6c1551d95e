package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fwojciec/omnirag"
	"github.com/fwojciec/omnirag/goldmark"
	ragjson "github.com/fwojciec/omnirag/json"
	"github.com/fwojciec/omnirag/readability"
	"github.com/labstack/echo/v4"
)

//go:embed static/index.html
var indexHTML []byte

type errorResponse struct {
	Error string `json:"error"`
}

type stateResponse struct {
	Documents   []ragjson.Document `json:"documents"`
	TotalTokens int                `json:"total_tokens"`
	Messages    []ragjson.Message  `json:"messages"`
	Status      omnirag.Status     `json:"status"`
	Error       string             `json:"error,omitempty"`
}

type documentsResponse struct {
	Documents   []ragjson.Document `json:"documents"`
	TotalTokens int                `json:"total_tokens"`
}

type uploadResponse struct {
	Added        []ragjson.Document `json:"added"`
	Errors       []fileError        `json:"errors"`
	TotalTokens  int                `json:"total_tokens"`
	SessionError string             `json:"session_error,omitempty"`
}

type fileError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type messagesResponse struct {
	Messages []ragjson.Message `json:"messages"`
}

type sendRequest struct {
	Text string `json:"text"`
}

type stopResponse struct {
	Stopped bool `json:"stopped"`
}

func (s *Server) index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) state(c echo.Context) error {
	resp := stateResponse{
		Documents:   ragjson.NewDocuments(s.chat.Documents()),
		TotalTokens: s.chat.TotalTokens(),
		Messages:    s.messages(s.chat.Messages()),
		Status:      s.chat.Status(),
	}
	if err := s.chat.Err(); err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listDocuments(c echo.Context) error {
	return c.JSON(http.StatusOK, documentsResponse{
		Documents:   ragjson.NewDocuments(s.chat.Documents()),
		TotalTokens: s.chat.TotalTokens(),
	})
}

// uploadDocuments adds every file of the multipart "files" field. Files
// that cannot be read are reported individually; a failed session refresh
// is reported alongside the added documents.
func (s *Server) uploadDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected multipart form with files")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files uploaded")
	}
	files := make([]omnirag.File, len(headers))
	for i, fh := range headers {
		files[i] = upload{fh: fh}
	}

	res, err := s.chat.AddDocuments(c.Request().Context(), readability.Wrap(files))
	resp := uploadResponse{
		Added:       ragjson.NewDocuments(res.Added),
		Errors:      make([]fileError, len(res.Failed)),
		TotalTokens: s.chat.TotalTokens(),
	}
	for i, fe := range res.Failed {
		resp.Errors[i] = fileError{Name: fe.Name, Error: fe.Err.Error()}
	}
	if err != nil {
		resp.SessionError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) removeDocument(c echo.Context) error {
	if _, err := s.chat.RemoveDocument(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listMessages(c echo.Context) error {
	return c.JSON(http.StatusOK, messagesResponse{Messages: s.messages(s.chat.Messages())})
}

// sendMessage streams the turn as server-sent events. Each snapshot is a
// "message" event; the stream ends with "done" carrying the final model
// message, or "error". Errors raised before the first event use ordinary
// status codes.
func (s *Server) sendMessage(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return omnirag.ErrEmptyMessage
	}

	sse := &eventWriter{resp: c.Response()}
	msg, err := s.chat.Send(c.Request().Context(), req.Text, omnirag.WithUpdateHandler(func(m omnirag.Message) {
		sse.send("message", s.message(m))
	}))
	if !sse.started {
		if err == nil {
			err = fmt.Errorf("turn produced no messages")
		}
		return err
	}
	if err != nil {
		sse.send("error", errorResponse{Error: err.Error()})
		return nil
	}
	sse.send("done", s.message(msg))
	return nil
}

func (s *Server) stop(c echo.Context) error {
	return c.JSON(http.StatusOK, stopResponse{Stopped: s.chat.Stop()})
}

func (s *Server) transcript(c echo.Context) error {
	t := s.chat.Transcript()
	data, err := ragjson.MarshalTranscript(t)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("omnirag-transcript-%s.json", t.ExportedAt.UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.JSONBlob(http.StatusOK, data)
}

func (s *Server) messages(msgs []omnirag.Message) []ragjson.Message {
	out := make([]ragjson.Message, len(msgs))
	for i, m := range msgs {
		out[i] = s.message(m)
	}
	return out
}

// message converts m and renders model content to HTML.
func (s *Server) message(m omnirag.Message) ragjson.Message {
	dto := ragjson.NewMessage(m)
	if m.Role != omnirag.RoleModel || m.Content == "" {
		return dto
	}
	html, err := goldmark.RenderHTML(m.Content)
	if err != nil {
		s.log.WithError(err).WithField("message_id", m.ID).Warn("render markdown")
		return dto
	}
	dto.HTML = html
	return dto
}

// eventWriter writes server-sent events, sending the headers with the
// first event.
type eventWriter struct {
	resp    *echo.Response
	started bool
	failed  bool
}

func (w *eventWriter) send(event string, v any) {
	if w.failed {
		return
	}
	if !w.started {
		h := w.resp.Header()
		h.Set(echo.HeaderContentType, "text/event-stream")
		h.Set(echo.HeaderCacheControl, "no-cache")
		h.Set("Connection", "keep-alive")
		w.resp.WriteHeader(http.StatusOK)
		w.started = true
	}
	data, err := json.Marshal(v)
	if err != nil {
		w.failed = true
		return
	}
	if _, err := fmt.Fprintf(w.resp, "event: %s\ndata: %s\n\n", event, data); err != nil {
		w.failed = true
		return
	}
	w.resp.Flush()
}

// upload adapts a multipart file to [omnirag.File].
type upload struct {
	fh *multipart.FileHeader
}

var _ omnirag.File = upload{}

func (u upload) Name() string { return filepath.Base(u.fh.Filename) }

func (u upload) MediaType() string { return u.fh.Header.Get(echo.HeaderContentType) }

func (u upload) Size() int64 { return u.fh.Size }

func (u upload) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := u.fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
