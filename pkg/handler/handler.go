//go:generate mockgen -source=handler.go -destination=handler_mock_test.go -package=handler

package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/pledgeforprogress/pledged/pkg/model"
)

const (
	callerKey     = "caller"
	maxEventsPage = 1000
)

var errStop = errors.New("stop")

type ledgerService interface {
	Pledge(ctx context.Context, caller model.Address, amount uint64) (*model.Pledge, error)
	ClaimFunds(ctx context.Context, caller model.Address) (*model.Transfer, error)
	Status(ctx context.Context) (*model.Status, error)
	PledgeAmount(ctx context.Context, address model.Address) (uint64, error)
	Pledges(ctx context.Context, cb func(pledge *model.Pledge) error) error
	Events(ctx context.Context, since uint64, cb func(event *model.Event) error) error
}

type Opts struct {
	// JWTSecret enables bearer token authentication, X-Caller header is used otherwise
	JWTSecret string
}

type handler struct {
	ledger ledgerService
	auth   authenticator
}

type PledgeRequest struct {
	Amount uint64 `json:"amount"`
}

func New(ledger ledgerService, opts Opts) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	h := handler{
		ledger: ledger,
		auth:   newAuthenticator(opts.JWTSecret),
	}

	r.GET("/ping", h.ping)
	r.GET("/status", h.status)
	r.GET("/pledge/:address", h.pledgeAmount)
	r.GET("/pledges", h.pledges)
	r.GET("/events", h.events)

	authorized := r.Group("/", h.authenticate)
	authorized.POST("/pledge", h.pledge)
	authorized.POST("/claim-funds", h.claimFunds)

	return r
}

func (h handler) ping(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h handler) authenticate(c *gin.Context) {
	caller, err := h.auth.caller(c.Request)
	if err != nil {
		log.WithError(err).Debug("rejected request without valid caller")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "unauthenticated"})
		return
	}

	c.Set(callerKey, caller)
	c.Next()
}

func (h handler) pledge(c *gin.Context) {
	req := &PledgeRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": model.Code(model.ErrInvalidAmount)})
		return
	}

	caller := c.MustGet(callerKey).(model.Address)

	pledge, err := h.ledger.Pledge(c.Request.Context(), caller, req.Amount)
	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"pledger": pledge.Pledger,
		"amount":  pledge.Amount,
	})
}

func (h handler) claimFunds(c *gin.Context) {
	caller := c.MustGet(callerKey).(model.Address)

	transfer, err := h.ledger.ClaimFunds(c.Request.Context(), caller)
	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"amount":      transfer.Amount,
		"beneficiary": transfer.To,
	})
}

func (h handler) status(c *gin.Context) {
	status, err := h.ledger.Status(c.Request.Context())
	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h handler) pledgeAmount(c *gin.Context) {
	address, err := model.ParseAddress(c.Param("address"))
	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	amount, err := h.ledger.PledgeAmount(c.Request.Context(), address)
	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

func (h handler) pledges(c *gin.Context) {
	list := make([]*model.Pledge, 0)
	err := h.ledger.Pledges(c.Request.Context(), func(pledge *model.Pledge) error {
		list = append(list, pledge)
		return nil
	})

	if err != nil {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"pledges": list})
}

func (h handler) events(c *gin.Context) {
	since, err := queryUint(c, "since", 0)
	if err != nil {
		c.JSON(badRequest(err))
		return
	}

	limit, err := queryUint(c, "limit", model.DefaultEventsPerPage)
	if err != nil {
		c.JSON(badRequest(err))
		return
	}

	if limit == 0 || limit > maxEventsPage {
		c.JSON(badRequest(errors.Errorf("limit must be between 1 and %d", maxEventsPage)))
		return
	}

	list := make([]*model.Event, 0)
	err = h.ledger.Events(c.Request.Context(), since, func(event *model.Event) error {
		list = append(list, event)
		if uint64(len(list)) >= limit {
			return errStop
		}
		return nil
	})

	if err != nil && errors.Cause(err) != errStop {
		c.JSON(ledgerError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": list})
}

func queryUint(c *gin.Context, name string, def uint64) (uint64, error) {
	str, ok := c.GetQuery(name)
	if !ok {
		return def, nil
	}

	val, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, errors.Errorf("invalid %s parameter %q", name, str)
	}

	return val, nil
}

func ledgerError(err error) (int, interface{}) {
	code := model.Code(err)

	switch code {
	case "invalid-amount", "invalid-address":
		return http.StatusBadRequest, gin.H{"error": err.Error(), "code": code}
	case "unauthorized":
		return http.StatusForbidden, gin.H{"error": err.Error(), "code": code}
	case "goal-not-met", "already-claimed", "campaign-closed":
		return http.StatusConflict, gin.H{"error": err.Error(), "code": code}
	case "not-found":
		return http.StatusNotFound, gin.H{"error": err.Error(), "code": code}
	default:
		return internalError(err)
	}
}

func badRequest(err error) (int, interface{}) {
	return http.StatusBadRequest, gin.H{"error": err.Error()}
}

func internalError(err error) (int, interface{}) {
	log.WithError(err).Error("server error")
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}
