package provision

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/gloski/cli/internal/retry"
	"github.com/gloski/cli/internal/swrcache"
)

// Location is a Hetzner datacenter location offered for new hosts.
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

// ServerType is a Hetzner plan offered for new hosts.
type ServerType struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Cores        int      `json:"cores"`
	Memory       float64  `json:"memory_gb"`
	Disk         int      `json:"disk_gb"`
	Architecture string   `json:"architecture"`
	PriceMonthly string   `json:"price_monthly,omitempty"`
	PriceHourly  string   `json:"price_hourly,omitempty"`
	Locations    []string `json:"locations,omitempty"`
}

// Image is an OS image offered for new hosts.
type Image struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	OSFlavor     string `json:"os_flavor"`
	Architecture string `json:"architecture"`
}

// SSHKey is an SSH key registered in the Hetzner project.
type SSHKey struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
}

// Locations lists datacenter locations, cached.
func (p *Provisioner) Locations(ctx context.Context) ([]Location, error) {
	return swrcache.GetOrFetch(p.cache, ctx, catalogKey("locations"), p.fetchLocations)
}

// ServerTypes lists plans, cached.
func (p *Provisioner) ServerTypes(ctx context.Context) ([]ServerType, error) {
	return swrcache.GetOrFetch(p.cache, ctx, catalogKey("server_types"), p.fetchServerTypes)
}

// Images lists available OS images, cached.
func (p *Provisioner) Images(ctx context.Context) ([]Image, error) {
	return swrcache.GetOrFetch(p.cache, ctx, catalogKey("images"), p.fetchImages)
}

// SSHKeys lists the project's SSH keys. Keys change with the user's hands on
// the keyboard, so they are never cached.
func (p *Provisioner) SSHKeys(ctx context.Context) ([]SSHKey, error) {
	var hzKeys []*hcloud.SSHKey
	err := retry.Do(ctx, retry.DefaultConfig(), isHetznerRetryable, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		var apiErr error
		hzKeys, apiErr = p.hc.SSHKey.All(reqCtx)
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list SSH keys: %w", mapHetznerErr(err))
	}

	keys := make([]SSHKey, 0, len(hzKeys))
	for _, k := range hzKeys {
		keys = append(keys, toSSHKey(k))
	}
	return keys, nil
}

// InvalidateCatalog drops all cached catalog entries, forcing the next
// lookup to hit the API.
func (p *Provisioner) InvalidateCatalog() error {
	if p.cache == nil {
		return nil
	}
	return p.cache.InvalidatePrefix(catalogKey(""))
}

func (p *Provisioner) fetchLocations(ctx context.Context) ([]Location, error) {
	var hzLocations []*hcloud.Location
	err := retry.Do(ctx, retry.DefaultConfig(), isHetznerRetryable, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		var apiErr error
		hzLocations, apiErr = p.hc.Location.All(reqCtx)
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", mapHetznerErr(err))
	}

	locations := make([]Location, 0, len(hzLocations))
	for _, loc := range hzLocations {
		locations = append(locations, toLocation(loc))
	}
	return locations, nil
}

func (p *Provisioner) fetchServerTypes(ctx context.Context) ([]ServerType, error) {
	var hzServerTypes []*hcloud.ServerType
	err := retry.Do(ctx, retry.DefaultConfig(), isHetznerRetryable, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		var apiErr error
		hzServerTypes, apiErr = p.hc.ServerType.All(reqCtx)
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list server types: %w", mapHetznerErr(err))
	}

	serverTypes := make([]ServerType, 0, len(hzServerTypes))
	for _, st := range hzServerTypes {
		serverTypes = append(serverTypes, toServerType(st))
	}
	return serverTypes, nil
}

func (p *Provisioner) fetchImages(ctx context.Context) ([]Image, error) {
	var hzImages []*hcloud.Image
	err := retry.Do(ctx, retry.DefaultConfig(), isHetznerRetryable, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		var apiErr error
		hzImages, apiErr = p.hc.Image.AllWithOpts(reqCtx, hcloud.ImageListOpts{
			Status: []hcloud.ImageStatus{hcloud.ImageStatusAvailable},
		})
		return apiErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", mapHetznerErr(err))
	}

	images := make([]Image, 0, len(hzImages))
	for _, img := range hzImages {
		images = append(images, toImage(img))
	}
	return images, nil
}

// isHetznerRetryable treats API-level errors as final (they will not change
// on a retry, and rate limits must back off for longer than we are willing
// to wait) and defers to the generic transport predicate otherwise.
func isHetznerRetryable(err error) bool {
	var hcErr hcloud.Error
	if errors.As(err, &hcErr) {
		return false
	}
	return retry.IsRetryable(err)
}

func toLocation(loc *hcloud.Location) Location {
	return Location{
		ID:          strconv.FormatInt(loc.ID, 10),
		Name:        loc.Name,
		Description: loc.Description,
		Country:     loc.Country,
		City:        loc.City,
	}
}

func toServerType(st *hcloud.ServerType) ServerType {
	spec := ServerType{
		ID:           strconv.FormatInt(st.ID, 10),
		Name:         st.Name,
		Description:  st.Description,
		Cores:        st.Cores,
		Memory:       float64(st.Memory),
		Disk:         st.Disk,
		Architecture: string(st.Architecture),
	}

	// The Locations field carries per-location deprecation info and is the
	// preferred source; prices are the fallback for older API responses.
	spec.Locations = availableLocations(st.Locations, time.Now())
	if len(spec.Locations) == 0 {
		locations := make([]string, 0, len(st.Pricings))
		for _, pricing := range st.Pricings {
			if pricing.Location != nil && pricing.Location.Name != "" {
				locations = append(locations, pricing.Location.Name)
			}
		}
		if len(locations) > 0 {
			spec.Locations = uniqueStrings(locations)
		}
	}

	if len(st.Pricings) > 0 {
		spec.PriceMonthly = st.Pricings[0].Monthly.Gross
		spec.PriceHourly = st.Pricings[0].Hourly.Gross
	}

	return spec
}

// availableLocations returns location names from the server type's Locations
// field, excluding any deprecated past their UnavailableAfter date.
func availableLocations(stLocations []hcloud.ServerTypeLocation, now time.Time) []string {
	names := make([]string, 0, len(stLocations))
	for _, stl := range stLocations {
		if stl.Location == nil || stl.Location.Name == "" {
			continue
		}
		if stl.IsDeprecated() && now.After(stl.UnavailableAfter()) {
			continue
		}
		names = append(names, stl.Location.Name)
	}
	if len(names) == 0 {
		return nil
	}
	return uniqueStrings(names)
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	sort.Strings(result)
	return result
}

func toImage(img *hcloud.Image) Image {
	return Image{
		ID:           strconv.FormatInt(img.ID, 10),
		Name:         img.Name,
		Description:  img.Description,
		Type:         string(img.Type),
		OSFlavor:     img.OSFlavor,
		Architecture: string(img.Architecture),
	}
}

func toSSHKey(k *hcloud.SSHKey) SSHKey {
	return SSHKey{
		ID:          strconv.FormatInt(k.ID, 10),
		Name:        k.Name,
		Fingerprint: k.Fingerprint,
	}
}

func catalogKey(resource string) string {
	return "hetzner_" + resource
}
