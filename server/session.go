package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/derek2403/token2049/core"
	"github.com/derek2403/token2049/engine"
)

type createSessionRequest struct {
	WalletAddress string `json:"walletAddress"`
}

type chatRequest struct {
	Content       string `json:"content"`
	WalletAddress string `json:"walletAddress"`
}

type sessionResponse struct {
	ID             string               `json:"id"`
	WalletAddress  string               `json:"walletAddress,omitempty"`
	CreatedAt      int64                `json:"createdAt"`
	History        []core.ChatTurn      `json:"history"`
	PendingActions []core.PendingAction `json:"pendingActions"`
}

// outputResponse carries the engine output plus its error text, which the
// output itself does not serialise.
type outputResponse struct {
	*engine.Output
	Error string `json:"error,omitempty"`
}

func newOutputResponse(out *engine.Output) outputResponse {
	resp := outputResponse{Output: out}
	if out.Error != nil {
		resp.Error = out.Error.Error()
	}
	return resp
}

func newSessionResponse(sess *engine.Session) sessionResponse {
	return sessionResponse{
		ID:             sess.ID,
		WalletAddress:  sess.Wallet(),
		CreatedAt:      sess.CreatedAt.Unix(),
		History:        sess.History(),
		PendingActions: sess.PendingActions(),
	}
}

func (s *Server) createSession(c *echo.Context) error {
	var req createSessionRequest
	// An empty body starts a session without a wallet.
	_ = c.Bind(&req)

	sess, err := s.engine.CreateSession(strings.TrimSpace(req.WalletAddress))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) getSession(c *echo.Context) error {
	sess, err := s.engine.Session(c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) deleteSession(c *echo.Context) error {
	if _, err := s.engine.Session(c.Param("id")); err != nil {
		return failErr(c, err)
	}
	s.engine.CloseSession(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) chat(c *echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return fail(c, http.StatusBadRequest, "content required")
	}
	out, err := s.engine.Handle(c.Request().Context(), c.Param("id"), req.Content, strings.TrimSpace(req.WalletAddress))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newOutputResponse(out))
}

func (s *Server) confirmAction(c *echo.Context) error {
	out, err := s.engine.Confirm(c.Request().Context(), c.Param("id"), c.Param("actionId"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newOutputResponse(out))
}

func (s *Server) cancelAction(c *echo.Context) error {
	out, err := s.engine.Cancel(c.Request().Context(), c.Param("id"), c.Param("actionId"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newOutputResponse(out))
}

func (s *Server) payRequest(c *echo.Context) error {
	out, err := s.engine.PayRequest(c.Request().Context(), c.Param("id"), c.Param("notificationId"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newOutputResponse(out))
}

func (s *Server) dismissRequest(c *echo.Context) error {
	out, err := s.engine.DismissRequest(c.Request().Context(), c.Param("id"), c.Param("notificationId"))
	if err != nil {
		return failErr(c, err)
	}
	return c.JSON(http.StatusOK, newOutputResponse(out))
}
