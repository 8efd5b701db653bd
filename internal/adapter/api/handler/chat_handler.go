package handler

import (
	"encoding/json"
	"strconv"

	"github.com/labstack/echo/v4"

	"motomarket/internal/adapter/api/middleware"
	"motomarket/internal/usecase"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{chatUseCase: chatUseCase}
}

type startConversationRequest struct {
	ListingID string `json:"listing_id" validate:"required"`
	Message   string `json:"message"`
}

func (h *ChatHandler) Start(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.StartConversation(c.Request().Context(), middleware.UserID(c), req.ListingID, req.Message)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, conversation)
}

func (h *ChatHandler) List(c echo.Context) error {
	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Collection(c, conversations, len(conversations))
}

func (h *ChatHandler) Get(c echo.Context) error {
	conversation, err := h.chatUseCase.GetConversation(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ChatHandler) Archive(c echo.Context) error {
	conversation, err := h.chatUseCase.ArchiveConversation(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

type sendMessageRequest struct {
	Content     string   `json:"content" validate:"required_without=OfferAmount"`
	OfferAmount *float64 `json:"offer_amount"`
}

// SendMessage accepts either JSON or a multipart form whose "data" field
// carries the JSON and whose "attachments" files ride along.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	req, attachments, err := h.parseSendMessage(c)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeUploads(attachments)

	message, sendErr := h.chatUseCase.SendMessage(c.Request().Context(), middleware.UserID(c), c.Param("id"), usecase.SendMessageInput{
		Content:     req.Content,
		OfferAmount: req.OfferAmount,
		Attachments: imageInputs(attachments),
	})
	if sendErr != nil {
		return response.Error(c, sendErr)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, total, err := h.chatUseCase.ReadMessages(c.Request().Context(), middleware.UserID(c), c.Param("id"), page, limit)
	if err != nil {
		return response.Error(c, err)
	}
	if limit <= 0 {
		limit = usecase.DefaultMessagePageSize
	}
	return response.List(c, messages, len(messages), page, limit, total)
}

type respondOfferRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

func (h *ChatHandler) RespondToOffer(c echo.Context) error {
	var req respondOfferRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.RespondToOffer(c.Request().Context(), middleware.UserID(c), c.Param("id"), req.Status == "accepted")
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, message)
}

func (h *ChatHandler) parseSendMessage(c echo.Context) (*sendMessageRequest, []openedUpload, error) {
	var req sendMessageRequest

	form, err := c.MultipartForm()
	if err != nil {
		if bindErr := c.Bind(&req); bindErr != nil {
			return nil, nil, errors.Validation("Invalid request payload", bindErr)
		}
		if err := c.Validate(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	if err := json.Unmarshal([]byte(c.FormValue("data")), &req); err != nil {
		return nil, nil, errors.Validation("Invalid message payload", err)
	}
	if err := c.Validate(&req); err != nil {
		return nil, nil, err
	}

	var uploads []openedUpload
	for _, header := range form.File["attachments"] {
		if header.Size > maxImageSize {
			closeUploads(uploads)
			return nil, nil, errors.Validation("Attachments must be at most 10MB", nil)
		}
		file, err := header.Open()
		if err != nil {
			closeUploads(uploads)
			return nil, nil, errors.Internal("Failed to read uploaded file", err)
		}
		uploads = append(uploads, openedUpload{file: file, header: header})
	}
	return &req, uploads, nil
}
