package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aryan0dhankhar/rentdesk/internal/domain"
	"github.com/aryan0dhankhar/rentdesk/internal/featureflags"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/metrics"
	"github.com/aryan0dhankhar/rentdesk/internal/observability/tracing"
	"github.com/aryan0dhankhar/rentdesk/internal/security"
	"github.com/aryan0dhankhar/rentdesk/internal/security/audit"
)

// MaxRentRequestMessage bounds the free-text message on a request
const MaxRentRequestMessage = 2000

// RentRequestService runs the rent request lifecycle. Every operation that
// reads and then changes a house's occupancy does so inside one
// transaction that holds the house row lock, so acceptance, sibling
// rejection and release are all-or-nothing and serialized per house.
type RentRequestService struct {
	tx       domain.Transactor
	houses   domain.HouseRepository
	requests domain.RentRequestRepository
	notifier Notifier
	flags    featureflags.Source
	policy   *security.Policy
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewRentRequestService creates the rent request lifecycle. tx must be the
// store that houses and requests come from.
func NewRentRequestService(
	tx domain.Transactor,
	houses domain.HouseRepository,
	requests domain.RentRequestRepository,
	notifier Notifier,
	flags featureflags.Source,
	policy *security.Policy,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *RentRequestService {
	if logger == nil {
		logger = slog.Default()
	}
	if flags == nil {
		flags = featureflags.NewEnv()
	}
	if policy == nil {
		policy = security.NewPolicy(logger)
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	return &RentRequestService{
		tx:       tx,
		houses:   houses,
		requests: requests,
		notifier: notifier,
		flags:    flags,
		policy:   policy,
		audit:    auditLog,
		logger:   logger,
	}
}

// TransitionResult describes what one status change did
type TransitionResult struct {
	Request          *domain.RentRequest
	From             domain.RentRequestStatus
	House            *domain.House
	RejectedSiblings []*domain.RentRequest
	HouseReleased    bool
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

// Create files a pending request by actor for houseID
func (s *RentRequestService) Create(ctx context.Context, actor domain.Actor, houseID, message string) (req *domain.RentRequest, err error) {
	ctx, span := tracing.Start(ctx, "RentRequestService.Create", trace.WithAttributes(
		attribute.String("house.id", houseID),
		attribute.String("user.id", actor.UserID),
	))
	defer func() { endSpan(span, err) }()

	if err := s.policy.CreateRentRequest(actor, nil); err != nil {
		return nil, err
	}
	if strings.TrimSpace(houseID) == "" {
		return nil, domain.Validation("house_id is required")
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxRentRequestMessage {
		return nil, domain.Validation("message cannot exceed %d characters", MaxRentRequestMessage)
	}

	var landlordID string
	err = s.tx.InTx(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		house, err := repos.Houses.GetForUpdate(ctx, houseID)
		if err != nil {
			return err
		}
		if !house.IsActive || !house.IsAvailable() {
			return domain.ErrHouseNotAvailable
		}
		if err := s.policy.CreateRentRequest(actor, house); err != nil {
			return err
		}

		dup, err := repos.RentRequests.HasPending(ctx, actor.UserID, house.ID, "")
		if err != nil {
			return err
		}
		if dup {
			return domain.Conflict("you already have a pending request for this house")
		}

		created := &domain.RentRequest{
			UserID:  actor.UserID,
			HouseID: house.ID,
			Message: message,
			Status:  domain.RentRequestPending,
		}
		if err := repos.RentRequests.Create(ctx, created); err != nil {
			return err
		}
		req, landlordID = created, house.LandlordID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rent request created",
		slog.String("request_id", req.ID),
		slog.String("house_id", req.HouseID),
		slog.String("user_id", req.UserID),
	)
	if s.flags.Enabled(featureflags.TransitionNotifications) {
		notifyAll(ctx, s.notifier, s.logger,
			notification(landlordID, domain.NotifRentRequestCreated, req.ID, "You have a new rent request for your house"))
	}
	return req, nil
}

// TransitionStatus moves a request to status to on behalf of actor.
//
// Accepting rents the house to the requester and rejects every other
// pending request for it. Rejecting or cancelling a previously accepted
// request releases the house when the requester is still its tenant.
func (s *RentRequestService) TransitionStatus(ctx context.Context, actor domain.Actor, requestID string, to domain.RentRequestStatus) (res *TransitionResult, err error) {
	ctx, span := tracing.Start(ctx, "RentRequestService.TransitionStatus", trace.WithAttributes(
		attribute.String("rent_request.id", requestID),
		attribute.String("rent_request.to", string(to)),
		attribute.String("user.role", string(actor.Role)),
	))
	defer func() { endSpan(span, err) }()

	if !to.Valid() {
		return nil, domain.Validation("invalid rent request status %q", to)
	}

	res = &TransitionResult{}
	err = s.tx.InTx(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		req, err := repos.RentRequests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		house, err := repos.Houses.GetForUpdate(ctx, req.HouseID)
		if err != nil {
			return err
		}
		// re-read under the house lock so the status we validate is current
		if req, err = repos.RentRequests.GetByID(ctx, requestID); err != nil {
			return err
		}
		res.From = req.Status

		if err := s.policy.TransitionRentRequest(actor, req, house, to); err != nil {
			return err
		}
		if to == domain.RentRequestPending && !s.flags.Enabled(featureflags.AdminRevert) {
			return domain.Forbidden("reverting rent requests to pending is disabled")
		}
		if err := domain.ValidateRentRequestTransition(req.Status, to, actor.IsAdmin()); err != nil {
			return err
		}

		switch to {
		case domain.RentRequestAccepted:
			if !house.IsAvailable() {
				return domain.ErrHouseNotAvailable
			}
			if err := repos.Houses.UpdateStatusAndTenant(ctx, house.ID, domain.HouseRented, &req.UserID); err != nil {
				return err
			}
			siblings, err := repos.RentRequests.RejectPendingSiblings(ctx, house.ID, req.ID)
			if err != nil {
				return err
			}
			res.RejectedSiblings = siblings

		case domain.RentRequestRejected, domain.RentRequestCancelled:
			if req.Status == domain.RentRequestAccepted && house.HasTenant(req.UserID) {
				if err := repos.Houses.UpdateStatusAndTenant(ctx, house.ID, domain.HouseAvailable, nil); err != nil {
					return err
				}
				res.HouseReleased = true
			}

		case domain.RentRequestPending:
			dup, err := repos.RentRequests.HasPending(ctx, req.UserID, req.HouseID, req.ID)
			if err != nil {
				return err
			}
			if dup {
				return domain.Conflict("requester already has another pending request for this house")
			}
		}

		if err := repos.RentRequests.UpdateStatus(ctx, req.ID, to); err != nil {
			return err
		}
		if res.Request, err = repos.RentRequests.GetByID(ctx, req.ID); err != nil {
			return err
		}
		res.House, err = repos.Houses.GetByID(ctx, house.ID)
		return err
	})

	result := "success"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	from := string(res.From)
	if from == "" {
		from = "unknown"
	}
	metrics.ObserveTransition(from, string(to), result)
	s.audit.LogTransition(ctx, actor, requestID, res.From, to, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("rent_request.from", from),
		attribute.Int("rent_request.siblings_rejected", len(res.RejectedSiblings)),
		attribute.Bool("house.released", res.HouseReleased),
	)
	if to == domain.RentRequestAccepted {
		metrics.HouseRented()
		metrics.ObserveSiblingsRejected(len(res.RejectedSiblings))
	}
	if res.HouseReleased {
		metrics.HouseReleased()
	}

	s.logger.Info("rent request transitioned",
		slog.String("request_id", requestID),
		slog.String("from", from),
		slog.String("to", string(to)),
		slog.Int("siblings_rejected", len(res.RejectedSiblings)),
		slog.Bool("house_released", res.HouseReleased),
	)
	if s.flags.Enabled(featureflags.TransitionNotifications) {
		notifyAll(ctx, s.notifier, s.logger, transitionNotifications(res)...)
	}
	return res, nil
}

func transitionNotifications(res *TransitionResult) []*domain.Notification {
	req, house := res.Request, res.House
	var out []*domain.Notification
	switch req.Status {
	case domain.RentRequestAccepted:
		out = append(out, notification(req.UserID, domain.NotifRentRequestAccepted, req.ID,
			fmt.Sprintf("Your rent request for %q was accepted", house.Title)))
		for _, sib := range res.RejectedSiblings {
			out = append(out, notification(sib.UserID, domain.NotifRentRequestRejected, sib.ID,
				fmt.Sprintf("Your rent request for %q was rejected: the house is no longer available", house.Title)))
		}
	case domain.RentRequestRejected:
		out = append(out, notification(req.UserID, domain.NotifRentRequestRejected, req.ID,
			fmt.Sprintf("Your rent request for %q was rejected", house.Title)))
	case domain.RentRequestCancelled:
		out = append(out, notification(house.LandlordID, domain.NotifRentRequestCancelled, req.ID,
			fmt.Sprintf("A rent request for %q was cancelled", house.Title)))
	case domain.RentRequestPending:
		out = append(out, notification(req.UserID, domain.NotifGeneral, req.ID,
			fmt.Sprintf("Your rent request for %q is pending again", house.Title)))
	}
	if res.HouseReleased {
		out = append(out, notification(house.LandlordID, domain.NotifHouseReleased, house.ID,
			fmt.Sprintf("%q is available again", house.Title)))
	}
	return out
}

// Get returns a request visible to actor
func (s *RentRequestService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.RentRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	house, err := s.houses.GetByID(ctx, req.HouseID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ViewRentRequest(actor, req, house); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *RentRequestService) list(ctx context.Context, filter domain.RentRequestFilter, page domain.Page) (*domain.ListResult[*domain.RentRequest], error) {
	page = page.Normalize()
	items, total, err := s.requests.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	return &domain.ListResult[*domain.RentRequest]{Items: items, Total: total, Page: page}, nil
}

// ListForUser lists requests made by userID
func (s *RentRequestService) ListForUser(ctx context.Context, userID string, filter domain.RentRequestFilter, page domain.Page) (*domain.ListResult[*domain.RentRequest], error) {
	filter.UserID = userID
	return s.list(ctx, filter, page)
}

// ListForLandlord lists requests against houses owned by landlordID
func (s *RentRequestService) ListForLandlord(ctx context.Context, landlordID string, filter domain.RentRequestFilter, page domain.Page) (*domain.ListResult[*domain.RentRequest], error) {
	filter.LandlordID = landlordID
	return s.list(ctx, filter, page)
}

// ListAll lists every request; callers must have checked for admin
func (s *RentRequestService) ListAll(ctx context.Context, filter domain.RentRequestFilter, page domain.Page) (*domain.ListResult[*domain.RentRequest], error) {
	return s.list(ctx, filter, page)
}

// List scopes the listing by actor's role
func (s *RentRequestService) List(ctx context.Context, actor domain.Actor, filter domain.RentRequestFilter, page domain.Page) (*domain.ListResult[*domain.RentRequest], error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, domain.Validation("invalid rent request status %q", *filter.Status)
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return s.ListAll(ctx, filter, page)
	case domain.RoleLandlord:
		return s.ListForLandlord(ctx, actor.UserID, filter, page)
	case domain.RoleTenant:
		return s.ListForUser(ctx, actor.UserID, filter, page)
	}
	return nil, domain.Forbidden("unknown role %q", actor.Role)
}

// Delete removes a request. Accepted requests must be cancelled first so the
// house is released; tenants may only delete their own pending requests.
func (s *RentRequestService) Delete(ctx context.Context, actor domain.Actor, id string) (err error) {
	ctx, span := tracing.Start(ctx, "RentRequestService.Delete", trace.WithAttributes(
		attribute.String("rent_request.id", id),
	))
	defer func() { endSpan(span, err) }()

	err = s.tx.InTx(ctx, func(ctx context.Context, repos domain.TxRepositories) error {
		req, err := repos.RentRequests.GetByID(ctx, id)
		if err != nil {
			return err
		}
		house, err := repos.Houses.GetForUpdate(ctx, req.HouseID)
		if err != nil {
			return err
		}
		if req, err = repos.RentRequests.GetByID(ctx, id); err != nil {
			return err
		}
		if err := s.policy.DeleteRentRequest(actor, req, house); err != nil {
			return err
		}
		if req.Status == domain.RentRequestAccepted {
			return domain.InvalidState("cancel the accepted request before deleting it")
		}
		decider := actor.IsAdmin() || house.LandlordID == actor.UserID
		if !decider && req.Status != domain.RentRequestPending {
			return domain.InvalidState("only pending requests can be deleted")
		}
		return repos.RentRequests.Delete(ctx, id)
	})
	s.audit.LogDeletion(ctx, actor, "rent_request", id, err)
	return err
}
