package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ntdung97/spacebook/internal/core/domain"
	"github.com/ntdung97/spacebook/internal/core/services"
)

type BookingHandler struct {
	svc *services.LifecycleService
}

func NewBookingHandler(svc *services.LifecycleService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

type createBookingRequest struct {
	SpaceID    uuid.UUID `json:"spaceId" binding:"required"`
	StartTime  time.Time `json:"startTime" binding:"required"`
	EndTime    time.Time `json:"endTime" binding:"required"`
	TotalPrice int64     `json:"totalPrice" binding:"required"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.svc.CreateBooking(c.Request.Context(), services.CreateBookingInput{
		UserID:     currentUser(c),
		SpaceID:    req.SpaceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOverlap) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, booking)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	booking, err := h.svc.GetBooking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, booking)
}

type confirmRequest struct {
	ExpiredAt time.Time `json:"expiredAt" binding:"required"`
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.Confirm(c.Request.Context(), id, req.ExpiredAt)
	respondOutcome(c, outcome, err)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *BookingHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.Reject(c.Request.Context(), id, req.Reason)
	respondOutcome(c, outcome, err)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	outcome, err := h.svc.Cancel(c.Request.Context(), id)
	respondOutcome(c, outcome, err)
}

// respondOutcome maps transition outcomes for explicit user actions: here an
// idempotent no-op is still a conflict, because the caller acted on a stale
// view.
func respondOutcome(c *gin.Context, outcome services.TransitionOutcome, err error) {
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	switch outcome {
	case services.OutcomeApplied:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case services.OutcomeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case services.OutcomeAlreadyDone:
		c.JSON(http.StatusConflict, gin.H{"error": "booking already in requested state"})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not in a state that allows this action"})
	}
}
