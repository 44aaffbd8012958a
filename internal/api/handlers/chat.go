package handlers

import (
	"net/http"
	"strconv"

	"github.com/pratik-mahalle/parlour/internal/api/dto"
	"github.com/pratik-mahalle/parlour/internal/api/middleware"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
	"github.com/pratik-mahalle/parlour/internal/services"
)

// ChatHandler serves the character conversation and speech endpoints
type ChatHandler struct {
	chat      *services.ChatService
	speech    *services.SpeechService
	logger    *logger.Logger
	validator *validator.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chat *services.ChatService,
	speech *services.SpeechService,
	log *logger.Logger,
	val *validator.Validator,
) *ChatHandler {
	return &ChatHandler{
		chat:      chat,
		speech:    speech,
		logger:    log,
		validator: val,
	}
}

// Chat sends a message to a character
// @Summary Chat with a character
// @Description Metered on messages. Returns the reply and what is left of the monthly message quota.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message"
// @Success 200 {object} dto.ChatResponse "Character reply"
// @Failure 400 {object} utils.ErrorResponse "Invalid request or unknown character"
// @Failure 401 {object} utils.ErrorResponse "Missing token"
// @Failure 403 {object} utils.ErrorResponse "Invalid token"
// @Failure 429 {object} utils.LimitExceededResponse "Monthly quota exhausted"
// @Failure 500 {object} utils.ErrorResponse "Generation failed"
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if appErr := decodeAndValidate(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	reply, err := h.chat.Reply(r.Context(), req.Character, req.User)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	resp := dto.ChatResponse{
		Response:      reply.Response,
		Character:     reply.Character.Name,
		TypingMessage: reply.Character.TypingMessage,
		Avatar:        reply.Character.Avatar,
	}
	if d, ok := middleware.GetDecision(r); ok {
		resp.Usage = dto.UsageRemaining{Remaining: d.Remaining, Limit: d.Limit}
	}

	utils.WriteSuccess(w, http.StatusOK, resp)
}

// TTS speaks text in a Polly voice
// @Summary Text to speech
// @Description Metered on compute time with a fixed estimate checked up front.
// @Tags Chat
// @Accept json
// @Produce audio/mpeg
// @Param request body dto.TTSRequest true "Text to speak"
// @Success 200 {file} binary "MP3 audio"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 429 {object} utils.LimitExceededResponse "Monthly quota exhausted"
// @Failure 500 {object} utils.ErrorResponse "TTS generation failed"
// @Failure 503 {object} utils.ErrorResponse "Speech disabled"
// @Security BearerAuth
// @Router /tts [post]
func (h *ChatHandler) TTS(w http.ResponseWriter, r *http.Request) {
	var req dto.TTSRequest
	if appErr := decodeAndValidate(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	audio, err := h.speech.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		utils.WriteErr(w, err)
		return
	}

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(audio.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio.Data); err != nil {
		h.logger.WithError(err).Warn("Failed to write audio")
	}
}

// Characters lists the catalogue
// @Summary List characters
// @Tags Chat
// @Produce json
// @Success 200 {array} dto.CharacterDTO "Characters"
// @Router /characters [get]
func (h *ChatHandler) Characters(w http.ResponseWriter, r *http.Request) {
	chars := h.chat.Characters()
	out := make([]dto.CharacterDTO, 0, len(chars))
	for _, c := range chars {
		out = append(out, dto.ToCharacterDTO(c))
	}
	utils.WriteSuccess(w, http.StatusOK, out)
}
