package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sistem-rt/portal-api/internal/dto"
	"github.com/sistem-rt/portal-api/internal/letters"
	"github.com/sistem-rt/portal-api/internal/models"
	"github.com/sistem-rt/portal-api/internal/repository"
	appErrors "github.com/sistem-rt/portal-api/pkg/errors"
	"github.com/sistem-rt/portal-api/pkg/storage"
)

type letterStore interface {
	Create(ctx context.Context, app *models.LetterApplication) error
	GetByID(ctx context.Context, id string) (*models.LetterApplication, error)
	ListByUser(ctx context.Context, userID string) ([]models.LetterApplication, error)
	List(ctx context.Context, filter models.LetterFilter) ([]models.LetterApplicationRow, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
}

type identityStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)
}

// NotificationSink accepts per-user notifications. Delivery is fire-and-forget
// from the workflow's perspective.
type NotificationSink interface {
	Notify(ctx context.Context, userID string, kind models.NotificationKind, title, message, link string)
}

// AttachmentStore stores an uploaded supporting file and returns its opaque
// handle. The workflow never inspects the content.
type AttachmentStore interface {
	SaveStream(originalName string, r io.Reader) (string, error)
}

// DocumentStore persists rendered letter documents.
type DocumentStore interface {
	Save(filename string, data []byte) (string, error)
	Exists(filename string) bool
	Path(filename string) string
}

// LetterRenderer synthesises the letter PDF for an approved application.
type LetterRenderer interface {
	Render(app *models.LetterApplication, user *models.User, details map[string]string) ([]byte, error)
}

// LetterService owns the letter application lifecycle: submission, per-type
// detail validation, review transitions, and orchestration of rendering and
// notifications.
type LetterService struct {
	repo        letterStore
	users       identityStore
	notifier    NotificationSink
	attachments AttachmentStore
	documents   DocumentStore
	renderer    LetterRenderer
	signer      *storage.SignedURLSigner
	logger      *zap.Logger

	renderTimeout time.Duration
	codeRetries   int
}

// LetterServiceOption configures the service.
type LetterServiceOption func(*LetterService)

// WithRenderTimeout bounds renderer latency during approval.
func WithRenderTimeout(d time.Duration) LetterServiceOption {
	return func(s *LetterService) {
		if d > 0 {
			s.renderTimeout = d
		}
	}
}

// WithCodeRetries sets the insert retry budget for application code
// collisions.
func WithCodeRetries(n int) LetterServiceOption {
	return func(s *LetterService) {
		if n > 0 {
			s.codeRetries = n
		}
	}
}

// WithDownloadSigner enables signed download tokens for rendered letters.
func WithDownloadSigner(signer *storage.SignedURLSigner) LetterServiceOption {
	return func(s *LetterService) {
		s.signer = signer
	}
}

// NewLetterService constructs the workflow service.
func NewLetterService(
	repo letterStore,
	users identityStore,
	notifier NotificationSink,
	attachments AttachmentStore,
	documents DocumentStore,
	renderer LetterRenderer,
	logger *zap.Logger,
	opts ...LetterServiceOption,
) *LetterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &LetterService{
		repo:          repo,
		users:         users,
		notifier:      notifier,
		attachments:   attachments,
		documents:     documents,
		renderer:      renderer,
		logger:        logger,
		renderTimeout: 10 * time.Second,
		codeRetries:   3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit validates and persists a new application in state pending, then
// informs every administrator. Notification failures never roll back the
// created record.
func (s *LetterService) Submit(ctx context.Context, req dto.SubmitLetterRequest, userID string) (*models.LetterApplication, error) {
	if !models.ValidLetterType(req.LetterType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "jenis surat tidak valid")
	}

	// Details are optional at submission; when absent the record stores
	// null and only the type and purpose carry into the rendered letter.
	details, err := letters.ParseDetails(req.Details)
	if err != nil {
		return nil, err
	}
	if details != nil {
		if err := letters.Validate(req.LetterType, details); err != nil {
			return nil, err
		}
	}

	var attachmentPath *string
	if req.Attachment != nil {
		handle, err := s.attachments.SaveStream(req.AttachmentName, req.Attachment)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, "failed to store attachment")
		}
		attachmentPath = &handle
	}

	app := &models.LetterApplication{
		UserID:         userID,
		LetterType:     req.LetterType,
		Purpose:        optionalString(req.Purpose),
		Details:        append([]byte(nil), req.Details...),
		AttachmentPath: attachmentPath,
		Status:         models.LetterStatusPending,
	}

	var lastErr error
	for attempt := 0; attempt < s.codeRetries; attempt++ {
		app.ID = ""
		app.ApplicationID = generateApplicationCode()
		if lastErr = s.repo.Create(ctx, app); lastErr == nil {
			break
		}
		if !repository.IsUniqueViolation(lastErr) {
			return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create letter application")
		}
		s.logger.Warn("application code collision, retrying", zap.String("application_id", app.ApplicationID))
	}
	if lastErr != nil {
		return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create letter application")
	}

	s.notifyAdmins(ctx, app.ApplicationID)
	return app, nil
}

// Approve transitions a pending application to approved: it renders the
// letter, stores the document handle, and notifies the owner. Render failure
// aborts the transition with the record left pending.
func (s *LetterService) Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pengajuan tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.LetterStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pengajuan sudah diproses")
	}

	owner, err := s.users.FindByID(ctx, app.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrDependency.Code, appErrors.ErrDependency.Status, "failed to load applicant profile")
	}

	details, parseErr := letters.ParseDetails(app.Details)
	if parseErr != nil {
		// Stored details predate validation or were malformed; render
		// without them rather than blocking the approval.
		details = nil
	}

	renderCtx, cancel := context.WithTimeout(ctx, s.renderTimeout)
	defer cancel()
	document, err := s.renderDocument(renderCtx, app, owner, letters.Normalize(app.LetterType, details))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.Status, "failed to render letter document")
	}

	// Path derives solely from the application code: a losing concurrent
	// approve overwrites the same artifact instead of creating a second one.
	filename := fmt.Sprintf("surat-%s.pdf", app.ApplicationID)
	pdfPath, err := s.documents.Save(filename, document)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRender.Code, appErrors.ErrRender.Status, "failed to store letter document")
	}

	now := time.Now().UTC()
	err = s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:        app.ID,
		Status:    models.LetterStatusApproved,
		PDFPath:   &pdfPath,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "pengajuan sudah diproses")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	app.Status = models.LetterStatusApproved
	app.PDFPath = &pdfPath
	app.UpdatedAt = now

	s.notifier.Notify(ctx, app.UserID, models.NotificationKindApplication,
		"Pengajuan Disetujui",
		fmt.Sprintf("Pengajuan surat Anda (ID: %s) telah disetujui. Surat siap diunduh.", app.ApplicationID),
		"/home")
	return app, nil
}

// Reject transitions a pending application to rejected, storing the optional
// admin note and notifying the owner.
func (s *LetterService) Reject(ctx context.Context, id string, req dto.RejectLetterRequest, actor *models.JWTClaims) (*models.LetterApplication, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pengajuan tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.Status != models.LetterStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "pengajuan sudah diproses")
	}

	now := time.Now().UTC()
	notes := optionalString(req.Notes)
	err = s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:         app.ID,
		Status:     models.LetterStatusRejected,
		AdminNotes: notes,
		UpdatedAt:  now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "pengajuan sudah diproses")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update application")
	}

	app.Status = models.LetterStatusRejected
	app.AdminNotes = notes
	app.UpdatedAt = now

	s.notifier.Notify(ctx, app.UserID, models.NotificationKindApplication,
		"Pengajuan Ditolak",
		fmt.Sprintf("Pengajuan surat Anda (ID: %s) telah ditolak.", app.ApplicationID),
		"/home")
	return app, nil
}

// Get returns an application, restricted to its owner or an administrator.
func (s *LetterService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterApplication, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "pengajuan tidak ditemukan")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if actor.Role != models.RoleAdmin && app.UserID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return app, nil
}

// ListMine returns the caller's own applications.
func (s *LetterService) ListMine(ctx context.Context, userID string) ([]models.LetterApplication, error) {
	apps, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// ListAll returns every application with applicant identity (admin view).
func (s *LetterService) ListAll(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterApplicationRow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, models.LetterFilter{Status: query.Status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return rows, nil
}

// Download resolves the stored document for an approved application,
// restricted to its owner or an administrator.
func (s *LetterService) Download(ctx context.Context, id string, actor *models.JWTClaims) (absPath, downloadName string, err error) {
	app, err := s.Get(ctx, id, actor)
	if err != nil {
		return "", "", err
	}
	if app.PDFPath == nil || !s.documents.Exists(*app.PDFPath) {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "file surat tidak ditemukan")
	}
	return s.documents.Path(*app.PDFPath), fmt.Sprintf("Surat-%s.pdf", app.ApplicationID), nil
}

// DownloadURL mints a short-lived signed token for the rendered document.
func (s *LetterService) DownloadURL(ctx context.Context, id string, actor *models.JWTClaims) (token string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "download signing not configured")
	}
	app, err := s.Get(ctx, id, actor)
	if err != nil {
		return "", time.Time{}, err
	}
	if app.PDFPath == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "file surat tidak ditemukan")
	}
	return signToken(s.signer, app.ID, *app.PDFPath)
}

// ResolveDownloadToken validates a signed token and returns the document
// location. Token possession is the authorization.
func (s *LetterService) ResolveDownloadToken(ctx context.Context, token string) (absPath, downloadName string, err error) {
	if s.signer == nil {
		return "", "", appErrors.Clone(appErrors.ErrInternal, "download signing not configured")
	}
	id, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", appErrors.Clone(appErrors.ErrNotFound, "pengajuan tidak ditemukan")
		}
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.PDFPath == nil || *app.PDFPath != relPath || !s.documents.Exists(relPath) {
		return "", "", appErrors.Clone(appErrors.ErrNotFound, "file surat tidak ditemukan")
	}
	return s.documents.Path(relPath), fmt.Sprintf("Surat-%s.pdf", app.ApplicationID), nil
}

func (s *LetterService) renderDocument(ctx context.Context, app *models.LetterApplication, owner *models.User, details map[string]string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := s.renderer.Render(app, owner, details)
		done <- result{data: data, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.data, res.err
	}
}

func (s *LetterService) notifyAdmins(ctx context.Context, applicationID string) {
	adminIDs, err := s.users.ListIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.logger.Warn("failed to list administrators for notification", zap.Error(err))
		return
	}
	for _, adminID := range adminIDs {
		s.notifier.Notify(ctx, adminID, models.NotificationKindApplication,
			"Pengajuan Surat Baru",
			fmt.Sprintf("Pengajuan surat baru dengan ID: %s", applicationID),
			"/admin")
	}
}

func requireAdmin(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	return nil
}

func signToken(signer *storage.SignedURLSigner, resourceID, relPath string) (string, time.Time, error) {
	token, expiresAt, err := signer.Generate(resourceID, relPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateApplicationCode builds the human-facing code from the submission
// timestamp and a random suffix.
func generateApplicationCode() string {
	suffix := make([]byte, 5)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			suffix[i] = codeAlphabet[time.Now().UnixNano()%int64(len(codeAlphabet))]
			continue
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("SRT-%d-%s", time.Now().UnixMilli(), suffix)
}
