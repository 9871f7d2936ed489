// Package service содержит бизнес-логику: регистрацию и вход,
// CRUD постов и комментариев с проверкой авторства, лайки.
//
// Сервисы не знают про HTTP. Личность вызывающего передается явно
// как models.Identity, ошибки возвращаются в терминах пакета apperror.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/iudanet/gophgram/internal/apperror"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/uploads"
)

// ImageStore сохраняет и удаляет загруженные картинки
type ImageStore interface {
	Save(r io.Reader) (string, error)
	Delete(name string) error
}

// TokenIssuer выпускает session token для пользователя
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// checkOwner returns ErrForbidden unless caller is the author
func checkOwner(authorID string, caller models.Identity) error {
	if authorID != caller.UserID {
		return fmt.Errorf("%w: user %s is not the author", apperror.ErrForbidden, caller.UserID)
	}
	return nil
}

// saveImage сохраняет картинку, если она передана.
// Ошибки типа и размера переводятся в клиентские ошибки.
func saveImage(images ImageStore, r io.Reader, field string) (string, error) {
	if r == nil {
		return "", nil
	}

	name, err := images.Save(r)
	switch {
	case err == nil:
		return name, nil
	case errors.Is(err, uploads.ErrUnsupportedType):
		return "", &apperror.ValidationError{Fields: []apperror.FieldError{
			{Field: field, Message: "must be a jpeg, png, gif or webp image"},
		}}
	case errors.Is(err, uploads.ErrTooLarge):
		return "", apperror.PayloadTooLarge(field + " is too large")
	default:
		return "", fmt.Errorf("failed to save %s: %w", field, err)
	}
}

// dropImage удаляет файл, ошибку только логирует
func dropImage(logger *slog.Logger, images ImageStore, name string) {
	if name == "" {
		return
	}
	if err := images.Delete(name); err != nil {
		logger.Warn("failed to delete image", slog.String("image", name), slog.Any("error", err))
	}
}
