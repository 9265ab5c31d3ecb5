package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/handyhub/internal/helpers"
	"github.com/joshua-takyi/handyhub/internal/models"
	"github.com/joshua-takyi/handyhub/internal/services"
)

func CreateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var input services.CreateBookingInput
		if !bindJSON(c, &input) {
			return
		}

		booking, err := b.CreateBooking(c.Request.Context(), userID, input)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "Booking created successfully"))
	}
}

func ListMyBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		page, err := b.ListMyBookings(c.Request.Context(), userID, helpers.Pagination(c, models.DefaultBookingPageSize))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}

func ListProviderBookings(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		page, err := b.ListProviderBookings(c.Request.Context(), userID, helpers.Pagination(c, models.DefaultBookingPageSize))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}

func GetBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		booking, err := b.GetBooking(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func UpdateBookingStatus(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var reqBody struct {
			Status models.BookingStatus `json:"status" binding:"required"`
		}
		if !bindJSON(c, &reqBody) {
			return
		}

		booking, err := b.UpdateStatus(c.Request.Context(), userID, c.Param("id"), reqBody.Status)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Booking "+string(booking.Status)))
	}
}

func CancelBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		booking, err := b.CancelBooking(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Booking cancelled"))
	}
}

func RateBooking(b *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := callerID(c)
		if !ok {
			return
		}
		var reqBody struct {
			Rating int `json:"rating" binding:"required"`
		}
		if !bindJSON(c, &reqBody) {
			return
		}

		booking, err := b.RateBooking(c.Request.Context(), userID, c.Param("id"), reqBody.Rating)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "Thanks for rating"))
	}
}
