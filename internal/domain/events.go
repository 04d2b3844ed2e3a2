package domain

import "context"

// ApplicationPublisher announces accepted applications to downstream systems.
type ApplicationPublisher interface {
	PublishApplication(ctx context.Context, a Applicant) error
}
