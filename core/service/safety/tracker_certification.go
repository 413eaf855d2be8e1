package safety

import (
	"context"
	"strings"
	"time"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
)

// ReleaseDateSource fetches per-region certification records.
type ReleaseDateSource interface {
	GetReleaseDates(ctx context.Context, id int64) ([]domain.CountryReleases, error)
}

// CertificationResolver reduces regional certification metadata to a single
// pass or fail. Every failure mode excludes the item.
type CertificationResolver struct {
	source  ReleaseDateSource
	region  string
	allowed map[string]struct{}
	timeout time.Duration
	log     zerolog.Logger
}

// NewCertificationResolver creates a resolver for cfg's region and allow-list.
func NewCertificationResolver(source ReleaseDateSource, cfg *Config, log zerolog.Logger) *CertificationResolver {
	cfg = cfg.normalized()
	allowed := make(map[string]struct{}, len(cfg.AllowedCertifications))
	for _, c := range cfg.AllowedCertifications {
		allowed[strings.TrimSpace(c)] = struct{}{}
	}
	return &CertificationResolver{
		source:  source,
		region:  cfg.Region,
		allowed: allowed,
		timeout: cfg.CallTimeout,
		log:     log,
	}
}

// Check fetches the certification of a movie and tests it against the allow-list.
// There is no retry; a failed lookup is a final exclusion for this request.
func (r *CertificationResolver) Check(ctx context.Context, id int64) Verdict {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	releases, err := r.source.GetReleaseDates(ctx, id)
	if err != nil {
		r.log.Warn().Err(err).Int64("movie_id", id).Msg("certification lookup failed, excluding")
		return deny(StageCertification, ReasonCertificationLookupFailed)
	}

	cert, ok := FirstCertification(releases, r.region)
	if !ok {
		return deny(StageCertification, ReasonCertificationMissing)
	}
	if _, ok := r.allowed[cert]; !ok {
		return deny(StageCertification, ReasonCertificationDisallowed)
	}
	return allow(StageCertification)
}

// FirstCertification returns the first non-empty certification of the region's
// entry, in provider order.
func FirstCertification(releases []domain.CountryReleases, region string) (string, bool) {
	for _, country := range releases {
		if !strings.EqualFold(country.Region, region) {
			continue
		}
		for _, rd := range country.ReleaseDates {
			if cert := strings.TrimSpace(rd.Certification); cert != "" {
				return cert, true
			}
		}
		return "", false
	}
	return "", false
}
