package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/TravelmateGo/internal/domain"
	pkgkafka "github.com/utafrali/TravelmateGo/pkg/kafka"
	"github.com/utafrali/TravelmateGo/pkg/logger"
)

// Kafka topics for member lifecycle events.
const (
	TopicMemberRegistered = "travelmate.member.registered"
	TopicMemberLoggedIn   = "travelmate.member.logged_in"
	TopicMemberLoggedOut  = "travelmate.member.logged_out"
	TopicMemberUpdated    = "travelmate.member.updated"
)

const (
	aggregateTypeMember = "member"
	sourceMemberService = "member-service"
)

// MemberRegisteredData is the payload for a member.registered event.
type MemberRegisteredData struct {
	UserNumber int    `json:"user_number"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// MemberLoggedInData is the payload for a member.logged_in event.
type MemberLoggedInData struct {
	UserNumber int    `json:"user_number"`
	Email      string `json:"email"`
}

// MemberLoggedOutData is the payload for a member.logged_out event.
type MemberLoggedOutData struct {
	UserNumber int    `json:"user_number"`
	Email      string `json:"email"`
}

// MemberUpdatedData is the payload for a member.updated event.
type MemberUpdatedData struct {
	UserNumber int    `json:"user_number"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
}

// Producer publishes member lifecycle events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a producer for member lifecycle events.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishMemberRegistered publishes a member.registered event.
func (p *Producer) PublishMemberRegistered(ctx context.Context, m *domain.Member) error {
	data := MemberRegisteredData{
		UserNumber: m.UserNumber,
		Email:      m.Email,
		Name:       m.Name,
		Role:       m.Role,
	}
	return p.publish(ctx, TopicMemberRegistered, m.UserNumber, data)
}

// PublishMemberLoggedIn publishes a member.logged_in event.
func (p *Producer) PublishMemberLoggedIn(ctx context.Context, m *domain.Member) error {
	data := MemberLoggedInData{
		UserNumber: m.UserNumber,
		Email:      m.Email,
	}
	return p.publish(ctx, TopicMemberLoggedIn, m.UserNumber, data)
}

// PublishMemberLoggedOut publishes a member.logged_out event. It takes the
// identifiers directly because the session is already gone when it fires.
func (p *Producer) PublishMemberLoggedOut(ctx context.Context, userNumber int, email string) error {
	data := MemberLoggedOutData{
		UserNumber: userNumber,
		Email:      email,
	}
	return p.publish(ctx, TopicMemberLoggedOut, userNumber, data)
}

// PublishMemberUpdated publishes a member.updated event.
func (p *Producer) PublishMemberUpdated(ctx context.Context, m *domain.Member) error {
	data := MemberUpdatedData{
		UserNumber: m.UserNumber,
		Email:      m.Email,
		Name:       m.Name,
		Role:       m.Role,
	}
	return p.publish(ctx, TopicMemberUpdated, m.UserNumber, data)
}

func (p *Producer) publish(ctx context.Context, topic string, userNumber int, data any) error {
	evt, err := pkgkafka.NewEvent(topic, strconv.Itoa(userNumber), aggregateTypeMember, sourceMemberService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published member event",
		slog.String("topic", topic),
		slog.Int("user_number", userNumber),
	)
	return nil
}
