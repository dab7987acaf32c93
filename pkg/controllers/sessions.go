package controllers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/session"
)

// SessionClient is the server API behind the session commands
type SessionClient interface {
	CreateSession(ctx context.Context, req session.CreateSessionRequest) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	RenameSession(ctx context.Context, id, title string) (*session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListProfiles(ctx context.Context) ([]session.Profile, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (*session.Image, error)
}

// SessionsController backs the session, profiles and upload commands
type SessionsController struct {
	client SessionClient
}

func NewSessionsController(client SessionClient) *SessionsController {
	return &SessionsController{
		client: client,
	}
}

func (sc *SessionsController) Create(ctx context.Context, title, profileID string, writer io.Writer) (*session.Session, error) {
	log := logger.WithComponent("sessions_controller")

	created, err := sc.client.CreateSession(ctx, session.CreateSessionRequest{Title: title, ProfileID: profileID})
	if err != nil {
		log.Error("CreateSession failed", "error", err)
		return nil, err
	}

	log.Debug("Session created", "session_id", created.ID)
	fmt.Fprintf(writer, "Created session %s\n", created.ID)
	return created, nil
}

func (sc *SessionsController) Show(ctx context.Context, id string, writer io.Writer) error {
	s, err := sc.client.GetSession(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to show session: %w", err)
	}

	fmt.Fprintf(writer, "ID:       %s\n", s.ID)
	fmt.Fprintf(writer, "Title:    %s\n", s.Title)
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(writer, "Updated:  %s\n", s.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(writer, "Slides:   %d\n", s.SlideDeck.Len())
	fmt.Fprintf(writer, "Messages: %d\n", len(s.Messages))

	if len(s.Messages) == 0 {
		return nil
	}

	fmt.Fprintln(writer)
	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tROLE\tCONTENT")
	for _, m := range s.Transcript() {
		content := m.Content
		if m.ToolCall != nil {
			content = "-> " + m.ToolCall.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Timestamp.Format("15:04:05"), m.Role, truncate(content, 60))
	}
	return w.Flush()
}

func (sc *SessionsController) Rename(ctx context.Context, id, title string, writer io.Writer) error {
	s, err := sc.client.RenameSession(ctx, id, title)
	if err != nil {
		return fmt.Errorf("failed to rename session: %w", err)
	}
	fmt.Fprintf(writer, "Renamed session %s to %q\n", s.ID, s.Title)
	return nil
}

func (sc *SessionsController) Delete(ctx context.Context, id string, writer io.Writer) error {
	if err := sc.client.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintf(writer, "Deleted session %s\n", id)
	return nil
}

func (sc *SessionsController) ListProfiles(ctx context.Context, writer io.Writer) error {
	profiles, err := sc.client.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(writer, "No profiles found")
		return nil
	}

	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDEFAULT\tDESCRIPTION")
	for _, p := range profiles {
		def := ""
		if p.IsDefault {
			def = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, def, p.Description)
	}
	return w.Flush()
}

func (sc *SessionsController) Upload(ctx context.Context, path string, writer io.Writer) (*session.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	image, err := sc.client.UploadImage(ctx, filepath.Base(path), file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", path, err)
	}

	fmt.Fprintf(writer, "Uploaded %s as %s (%s)\n", image.Filename, image.ID, image.URL)
	return image, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
