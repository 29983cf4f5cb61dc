package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/intent"
)

type notificationResponse struct {
	Success         bool                     `json:"success"`
	Notification    *core.NotificationRecord `json:"notification"`
	HasNotification bool                     `json:"hasNotification"`
}

type pendingResponse struct {
	Success       bool                      `json:"success"`
	Notifications []core.NotificationRecord `json:"notifications"`
}

type saveNotificationsRequest struct {
	Notifications []core.NotificationRecord `json:"notifications"`
}

type saveNotificationsResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Count   int      `json:"count"`
	IDs     []string `json:"ids"`
}

type deleteNotificationRequest struct {
	NotificationID string `json:"notificationId"`
}

type deleteNotificationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) requireRelay(c *echo.Context) bool {
	if s.relay == nil {
		_ = fail(c, http.StatusServiceUnavailable, "Notifications are not configured")
		return false
	}
	return true
}

// walletParam returns the walletAddress query parameter, writing a 400
// when it is missing or malformed.
func walletParam(c *echo.Context) (string, bool) {
	wallet := strings.TrimSpace(c.QueryParam("walletAddress"))
	if wallet == "" {
		_ = fail(c, http.StatusBadRequest, "walletAddress parameter required")
		return "", false
	}
	if !intent.IsAddress(wallet) {
		_ = fail(c, http.StatusBadRequest, "invalid walletAddress")
		return "", false
	}
	return wallet, true
}

func (s *Server) latestNotification(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	wallet, ok := walletParam(c)
	if !ok {
		return nil
	}
	rec, err := s.relay.FetchLatest(c.Request().Context(), wallet)
	if err != nil {
		s.logger.Warn("read notifications failed", zap.String("wallet", wallet), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to read notifications")
	}
	return c.JSON(http.StatusOK, notificationResponse{
		Success:         true,
		Notification:    rec,
		HasNotification: rec != nil,
	})
}

func (s *Server) pendingNotifications(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	wallet, ok := walletParam(c)
	if !ok {
		return nil
	}
	recs, err := s.relay.FetchPending(c.Request().Context(), wallet)
	if err != nil {
		s.logger.Warn("read notifications failed", zap.String("wallet", wallet), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to read notifications")
	}
	if recs == nil {
		recs = []core.NotificationRecord{}
	}
	return c.JSON(http.StatusOK, pendingResponse{Success: true, Notifications: recs})
}

func (s *Server) getNotification(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	rec, err := s.relay.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, core.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Notification not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Failed to read notifications")
	}
	return c.JSON(http.StatusOK, notificationResponse{Success: true, Notification: rec, HasNotification: true})
}

func (s *Server) saveNotifications(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	var req saveNotificationsRequest
	if err := c.Bind(&req); err != nil || len(req.Notifications) == 0 {
		return fail(c, http.StatusBadRequest, "No notifications provided")
	}
	ids, err := s.relay.Publish(c.Request().Context(), req.Notifications...)
	if errors.Is(err, core.ErrValidation) {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	if err != nil {
		s.logger.Warn("save notifications failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to save notifications")
	}
	return c.JSON(http.StatusOK, saveNotificationsResponse{
		Success: true,
		Message: "Notifications saved successfully",
		Count:   len(ids),
		IDs:     ids,
	})
}

// deleteNotification accepts the id either in the path or as
// {"notificationId": ...} in the body.
func (s *Server) deleteNotification(c *echo.Context) error {
	if !s.requireRelay(c) {
		return nil
	}
	id := c.Param("id")
	if id == "" {
		var req deleteNotificationRequest
		_ = c.Bind(&req)
		id = strings.TrimSpace(req.NotificationID)
	}
	if id == "" {
		return fail(c, http.StatusBadRequest, "notificationId required")
	}
	deleted, err := s.relay.Dismiss(c.Request().Context(), id)
	if err != nil {
		s.logger.Warn("remove notification failed", zap.String("id", id), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Failed to remove notification")
	}
	return c.JSON(http.StatusOK, deleteNotificationResponse{
		Success: true,
		Message: "Notification removed successfully",
		Deleted: deleted,
	})
}

func (s *Server) searchContacts(c *echo.Context) error {
	contacts := s.engine.Directory().Search(strings.TrimSpace(c.QueryParam("q")))
	if contacts == nil {
		contacts = []core.Contact{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"contacts": contacts,
	})
}

func (s *Server) getBalances(c *echo.Context) error {
	if s.balances == nil {
		return fail(c, http.StatusServiceUnavailable, "Balances are not configured")
	}
	wallet, ok := walletParam(c)
	if !ok {
		return nil
	}
	balances, err := s.balances.Balances(c.Request().Context(), wallet)
	if err != nil {
		s.logger.Warn("read balances failed", zap.String("wallet", wallet), zap.Error(err))
		return fail(c, http.StatusBadGateway, "Failed to read balances")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  true,
		"balances": balances,
	})
}
