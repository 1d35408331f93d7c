package websocket

import (
	"context"

	apperrors "github.com/promptdeck/promptdeck/internal/common/errors"
	"github.com/promptdeck/promptdeck/internal/prompt/service"
	v1 "github.com/promptdeck/promptdeck/pkg/api/v1"
	"github.com/promptdeck/promptdeck/pkg/ws"
)

// createPromptPayload is the payload for prompt.create
type createPromptPayload struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// updatePromptPayload is the payload for prompt.update
type updatePromptPayload struct {
	PromptID string    `json:"prompt_id"`
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// promptIDPayload identifies a prompt for get and delete actions
type promptIDPayload struct {
	PromptID string `json:"prompt_id"`
}

// RegisterPromptActions wires the prompt CRUD actions into the dispatcher so
// the same operations are available over the socket as over REST.
func RegisterPromptActions(d *ws.Dispatcher, svc *service.Service) {
	d.RegisterFunc(ws.ActionPromptList, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		userID := UserIDFromContext(ctx)
		prompts, err := svc.List(ctx, userID)
		if err != nil {
			return errorMessage(msg, err)
		}

		list := v1.PromptList{Prompts: make([]v1.Prompt, 0, len(prompts))}
		for _, p := range prompts {
			list.Prompts = append(list.Prompts, toAPIPrompt(p))
		}
		list.Count = len(list.Prompts)
		return ws.NewResponse(msg.ID, msg.Action, list)
	})

	d.RegisterFunc(ws.ActionPromptCreate, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		userID := UserIDFromContext(ctx)

		var payload createPromptPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}

		prompt, err := svc.Create(ctx, userID, service.CreatePromptParams{
			Title:    payload.Title,
			Content:  payload.Content,
			Category: payload.Category,
			Tags:     payload.Tags,
		})
		if err != nil {
			return errorMessage(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, toAPIPrompt(prompt))
	})

	d.RegisterFunc(ws.ActionPromptGet, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		userID := UserIDFromContext(ctx)

		var payload promptIDPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.PromptID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "prompt_id is required", nil)
		}

		prompt, err := svc.Get(ctx, userID, payload.PromptID)
		if err != nil {
			return errorMessage(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, toAPIPrompt(prompt))
	})

	d.RegisterFunc(ws.ActionPromptUpdate, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		userID := UserIDFromContext(ctx)

		var payload updatePromptPayload
		if err := msg.ParsePayload(&payload); err != nil {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
		}
		if payload.PromptID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "prompt_id is required", nil)
		}

		prompt, err := svc.Update(ctx, userID, payload.PromptID, service.UpdatePromptParams{
			Title:    payload.Title,
			Content:  payload.Content,
			Category: payload.Category,
			Tags:     payload.Tags,
		})
		if err != nil {
			return errorMessage(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, toAPIPrompt(prompt))
	})

	d.RegisterFunc(ws.ActionPromptDelete, func(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
		userID := UserIDFromContext(ctx)

		var payload promptIDPayload
		if err := msg.ParsePayload(&payload); err != nil || payload.PromptID == "" {
			return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeValidation, "prompt_id is required", nil)
		}

		if err := svc.Delete(ctx, userID, payload.PromptID); err != nil {
			return errorMessage(msg, err)
		}
		return ws.NewResponse(msg.ID, msg.Action, map[string]interface{}{
			"success":   true,
			"prompt_id": payload.PromptID,
		})
	})
}

// errorMessage maps an application error to a protocol error message.
func errorMessage(msg *ws.Message, err error) (*ws.Message, error) {
	appErr := apperrors.AsAppError(err)

	code := ws.ErrorCodeInternalError
	switch appErr.Code {
	case apperrors.CodeNotFound:
		code = ws.ErrorCodeNotFound
	case apperrors.CodeInvalidInput:
		code = ws.ErrorCodeValidation
	case apperrors.CodeUnauthorized:
		code = ws.ErrorCodeUnauthorized
	case apperrors.CodeForbidden:
		code = ws.ErrorCodeForbidden
	}

	return ws.NewError(msg.ID, msg.Action, code, appErr.Message, nil)
}
