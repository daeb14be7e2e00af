package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"satistrain_backend/internal/model"
	"satistrain_backend/internal/repository"
	"satistrain_backend/internal/util"
	"satistrain_backend/pkg/logger"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CertificateService struct {
	CertRepo   *repository.CertificateRepository
	CourseRepo *repository.CourseRepository
	UserRepo   *repository.UserRepository
	Storage    StorageProvider
	markdown   goldmark.Markdown
}

func NewCertificateService(
	certRepo *repository.CertificateRepository,
	courseRepo *repository.CourseRepository,
	userRepo *repository.UserRepository,
	storage StorageProvider,
) *CertificateService {
	return &CertificateService{
		CertRepo:   certRepo,
		CourseRepo: courseRepo,
		UserRepo:   userRepo,
		Storage:    storage,
		markdown:   goldmark.New(),
	}
}

// NewCertificateNumber 格式 ST-<年份>-<8位十六进制>
func NewCertificateNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("ST-%d-%s", now.Year(), strings.ToUpper(id[:8]))
}

// Issue 为完成课程的用户颁发证书，同一课程只颁发一次
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	if userID == 0 || courseID == 0 {
		return nil, util.NewValidationError("userId and courseId are required")
	}

	existing, err := s.CertRepo.Find(ctx, userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ClassifyError(err)
	}

	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	course, err := s.CourseRepo.FindByID(ctx, courseID)
	if err != nil {
		return nil, util.ClassifyError(err)
	}

	now := time.Now()
	cert := &model.Certificate{
		UserID:   userID,
		CourseID: courseID,
		Number:   NewCertificateNumber(now),
		IssuedAt: now,
	}
	if err := s.CertRepo.Create(ctx, cert); err != nil {
		return nil, util.ClassifyError(err)
	}

	// 文档渲染失败不影响证书本身，之后可以重新生成
	if url, err := s.renderDocument(ctx, cert, user, course); err != nil {
		logger.Log.Warn("Certificate document upload failed",
			zap.String("number", cert.Number),
			zap.Error(err),
		)
	} else {
		cert.DocumentURL = url
		if err := s.CertRepo.Update(ctx, cert); err != nil {
			return nil, util.ClassifyError(err)
		}
	}

	logger.Log.Info("Certificate issued",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.String("number", cert.Number),
	)
	cert.Course = course
	return cert, nil
}

// RenderCertificate 把证书内容渲染成 HTML
func (s *CertificateService) RenderCertificate(cert *model.Certificate, user *model.User, course *model.Course) ([]byte, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# Zertifikat\n\n")
	fmt.Fprintf(&md, "Hiermit wird bestätigt, dass **%s** den Kurs\n\n", escapeMarkdown(user.Name))
	fmt.Fprintf(&md, "## %s\n\n", escapeMarkdown(course.Title))
	fmt.Fprintf(&md, "(Version %d, ca. %.1f Stunden) erfolgreich abgeschlossen hat.\n\n", course.Version, course.EstimatedHours)
	fmt.Fprintf(&md, "- Zertifikatsnummer: `%s`\n", cert.Number)
	fmt.Fprintf(&md, "- Ausgestellt am: %s\n", cert.IssuedAt.Format(util.DateFormat))

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"de\"><head><meta charset=\"utf-8\"><title>")
	buf.WriteString(cert.Number)
	buf.WriteString("</title></head><body>\n")
	if err := s.markdown.Convert([]byte(md.String()), &buf); err != nil {
		return nil, err
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

func (s *CertificateService) renderDocument(ctx context.Context, cert *model.Certificate, user *model.User, course *model.Course) (string, error) {
	if s.Storage == nil {
		return "", nil
	}
	doc, err := s.RenderCertificate(cert, user, course)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("certificates/%d/%s.html", cert.UserID, cert.Number)
	return s.Storage.Upload(ctx, key, bytes.NewReader(doc), int64(len(doc)), util.MimeHTML)
}

func (s *CertificateService) ListForUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	if userID == 0 {
		return nil, util.NewValidationError("userId is required")
	}
	certs, err := s.CertRepo.ListByUser(ctx, userID)
	return certs, util.ClassifyError(err)
}

// GetByNumber 公开校验证书编号
func (s *CertificateService) GetByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, util.NewValidationError("certificate number is required")
	}
	cert, err := s.CertRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, util.ClassifyError(err)
	}
	return cert, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
