package safety

import (
	"context"
	"testing"
	"time"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCertificationResolverCheck(t *testing.T) {
	tests := []struct {
		name       string
		releases   []domain.CountryReleases
		err        error
		wantAllow  bool
		wantReason Reason
	}{
		{
			name:       "PG-13 is allowed",
			releases:   usRelease("PG-13"),
			wantAllow:  true,
			wantReason: ReasonAllowed,
		},
		{
			name:       "G is allowed",
			releases:   usRelease("G"),
			wantAllow:  true,
			wantReason: ReasonAllowed,
		},
		{
			name:       "R is excluded",
			releases:   usRelease("R"),
			wantReason: ReasonCertificationDisallowed,
		},
		{
			name:       "first non-empty certification wins",
			releases:   usRelease("", "  ", "R", "PG"),
			wantReason: ReasonCertificationDisallowed,
		},
		{
			name:       "empty certifications are missing",
			releases:   usRelease("", ""),
			wantReason: ReasonCertificationMissing,
		},
		{
			name: "no US entry is missing",
			releases: []domain.CountryReleases{
				{Region: "GB", ReleaseDates: []domain.ReleaseRecord{{Certification: "PG"}}},
			},
			wantReason: ReasonCertificationMissing,
		},
		{
			name:       "no entries at all is missing",
			releases:   nil,
			wantReason: ReasonCertificationMissing,
		},
		{
			name:       "lookup error fails closed",
			err:        errLookup,
			wantReason: ReasonCertificationLookupFailed,
		},
		{
			name:       "lowercase certification is not on the list",
			releases:   usRelease("pg"),
			wantReason: ReasonCertificationDisallowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeCatalog()
			fc.releases[1] = tt.releases
			if tt.err != nil {
				fc.releaseErr[1] = tt.err
			}
			r := NewCertificationResolver(fc, nil, zerolog.Nop())

			v := r.Check(context.Background(), 1)
			assert.Equal(t, tt.wantAllow, v.Allowed)
			assert.Equal(t, tt.wantReason, v.Reason)
			assert.Equal(t, StageCertification, v.Stage)
		})
	}
}

func TestCertificationResolverTimeout(t *testing.T) {
	fc := newFakeCatalog()
	fc.releases[1] = usRelease("PG")
	fc.delay = 200 * time.Millisecond

	cfg := DefaultConfig()
	cfg.CallTimeout = 10 * time.Millisecond
	r := NewCertificationResolver(fc, cfg, zerolog.Nop())

	v := r.Check(context.Background(), 1)
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonCertificationLookupFailed, v.Reason)
}

func TestCertificationResolverRegion(t *testing.T) {
	fc := newFakeCatalog()
	fc.releases[1] = []domain.CountryReleases{
		{Region: "US", ReleaseDates: []domain.ReleaseRecord{{Certification: "R"}}},
		{Region: "GB", ReleaseDates: []domain.ReleaseRecord{{Certification: "12A"}}},
	}

	cfg := DefaultConfig()
	cfg.Region = "gb"
	cfg.AllowedCertifications = []string{"U", "PG", "12A"}
	r := NewCertificationResolver(fc, cfg, zerolog.Nop())

	assert.True(t, r.Check(context.Background(), 1).Allowed)
}

func TestFirstCertification(t *testing.T) {
	cert, ok := FirstCertification(usRelease("", "PG", "R"), "US")
	assert.True(t, ok)
	assert.Equal(t, "PG", cert)

	_, ok = FirstCertification(usRelease(), "US")
	assert.False(t, ok)
}
