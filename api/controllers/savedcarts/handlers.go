package savedcarts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/procurecart/procurecart-backend/api/middleware"
	"github.com/procurecart/procurecart-backend/api/responses"
	"github.com/procurecart/procurecart-backend/api/validators"
	approvalsvc "github.com/procurecart/procurecart-backend/internal/approval"
	commentsvc "github.com/procurecart/procurecart-backend/internal/comments"
	savedcartsvc "github.com/procurecart/procurecart-backend/internal/savedcarts"
	"github.com/procurecart/procurecart-backend/pkg/enums"
	pkgerrors "github.com/procurecart/procurecart-backend/pkg/errors"
	"github.com/procurecart/procurecart-backend/pkg/logger"
)

// Save captures or refreshes a saved cart from the current live cart.
func Save(svc savedcartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload SaveCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Save(r.Context(), middleware.ActorFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSavedCartResponse(record))
	}
}

// List returns the organization's saved carts, newest first.
func List(svc savedcartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		costCenterID := r.URL.Query().Get("costCenterId")
		if costCenterID == "" {
			costCenterID = actor.CostCenterID
		}

		records, total, err := svc.ListForOrg(r.Context(), actor.OrgID, costCenterID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ListResponse{
			Items:    newSavedCartList(records),
			Total:    total,
			Page:     page.Page,
			PageSize: page.PageSize,
		})
	}
}

// Get fetches one saved cart with its comment count.
func Get(svc savedcartsvc.Service, comments commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), middleware.OrgIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		total, err := comments.Count(r.Context(), record.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := newSavedCartResponse(record)
		payload.CommentCount = &total
		responses.WriteSuccess(w, payload)
	}
}

// Rename updates the title of a saved cart.
func Rename(svc savedcartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload RenameRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Rename(r.Context(), middleware.OrgIDFromContext(r.Context()), id, payload.Title); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "renamed"})
	}
}

// Delete removes a saved cart and its direct children.
func Delete(svc savedcartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.OrgIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListChildren returns the direct children of a saved cart.
func ListChildren(svc savedcartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListChildren(r.Context(), middleware.OrgIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSavedCartList(records))
	}
}

// SetStatus drives a user transition of the approval state machine.
func SetStatus(svc approvalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload SetStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseSavedCartStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		record, err := svc.SetStatus(r.Context(), middleware.ActorFromContext(r.Context()), id, approvalsvc.SetStatusInput{
			Target:            status,
			RequestedDiscount: payload.RequestedDiscount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSavedCartResponse(record))
	}
}

// AddComment appends a free-text comment to the log.
func AddComment(carts savedcartsvc.Service, svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Comments hang off org-owned records only.
		if _, err := carts.Get(r.Context(), middleware.OrgIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload CommentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.Add(r.Context(), id, middleware.EmailFromContext(r.Context()), payload.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, CommentResponse{
			ID:        comment.ID,
			Email:     comment.Email,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}
}

// ListComments returns the comment log newest-first.
func ListComments(carts savedcartsvc.Service, svc commentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := carts.Get(r.Context(), middleware.OrgIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCommentList(rows))
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "id must be a valid uuid")
	}
	return id, nil
}
