package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gloski/cli/internal/provision"
	"github.com/gloski/cli/internal/util"

	"github.com/charmbracelet/huh"
	"golang.org/x/sync/errgroup"
)

// catalogData holds the Hetzner catalog needed by the wizard.
type catalogData struct {
	locations   []provision.Location
	serverTypes []provision.ServerType
	images      []provision.Image
	sshKeys     []provision.SSHKey
}

// RunProvisionWizard collects provisioning options interactively. Catalog
// data comes from the provisioner's cached Hetzner catalog; the returned
// options are ready for Provision.
func RunProvisionWizard(p *provision.Provisioner, prefill provision.Opts) (*provision.Opts, error) {
	var data catalogData
	if err := WaitFor("Fetching Hetzner catalog...", func(ctx context.Context) error {
		var err error
		data, err = fetchCatalog(ctx, p)
		return err
	}); err != nil {
		return nil, err
	}

	if len(data.locations) == 0 {
		return nil, fmt.Errorf("no locations available")
	}
	if len(data.serverTypes) == 0 {
		return nil, fmt.Errorf("no server types available")
	}

	opts := prefill
	opts.SSHKeys = append([]string(nil), prefill.SSHKeys...)
	if opts.Image == "" {
		opts.Image = provision.DefaultImage
	}

	// Step 1: name + location.

	locationOpts, locationLabels := buildLocationOptions(data.locations, opts.Location)

	nameField := huh.NewInput().
		Title("Host name").
		Description("Becomes the server name and the system hostname").
		Placeholder("web-1").
		Value(&opts.Name).
		Validate(func(v string) error {
			return util.ValidateHostName(strings.TrimSpace(v))
		})

	locationField := huh.NewSelect[string]().
		Title("Location").
		Options(locationOpts...).
		Value(&opts.Location).
		Height(selectHeight(len(locationOpts), 10))

	if err := runForm(
		huh.NewGroup(nameField),
		huh.NewGroup(locationField),
	); err != nil {
		return nil, err
	}

	// Step 2: server type, narrowed to the chosen location.

	filteredTypes := filterServerTypesByLocation(data.serverTypes, opts.Location)
	if len(filteredTypes) == 0 {
		return nil, fmt.Errorf("no server types available for location %q", opts.Location)
	}
	if opts.ServerType != "" && !hasServerType(filteredTypes, opts.ServerType) {
		opts.ServerType = ""
	}

	serverTypeOpts, serverTypeLabels := buildServerTypeOptions(filteredTypes, opts.ServerType)

	serverTypeField := huh.NewSelect[string]().
		Title("Server type").
		Description("The smallest plans run the agent comfortably").
		Options(serverTypeOpts...).
		Value(&opts.ServerType).
		Height(selectHeight(len(serverTypeOpts), 12)).
		Validate(huh.ValidateNotEmpty())

	if err := runForm(huh.NewGroup(serverTypeField)); err != nil {
		return nil, err
	}

	// Step 3: image, narrowed to the plan's architecture.

	imageOpts, imageLabels := buildImageOptions(data.images, architectureOf(filteredTypes, opts.ServerType), opts.Image)

	imageField := huh.NewSelect[string]().
		Title("Image").
		Options(imageOpts...).
		Value(&opts.Image).
		Height(selectHeight(len(imageOpts), 10))

	if err := runForm(huh.NewGroup(imageField)); err != nil {
		return nil, err
	}

	// Step 4: SSH keys.

	sshKeyOpts, sshKeyLabels := buildSSHKeyOptions(data.sshKeys, opts.SSHKeys)

	var sshKeyGroup *huh.Group
	if len(sshKeyOpts) == 0 {
		sshKeyGroup = huh.NewGroup(
			huh.NewNote().
				Title("SSH keys").
				Description("No SSH keys found in the Hetzner project.\nWithout one, Hetzner generates a root password and gloski prints it once."),
		)
	} else {
		sshKeyGroup = huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("SSH keys").
				Description("Keys granted root access on the new host").
				Options(sshKeyOpts...).
				Value(&opts.SSHKeys).
				Height(selectHeight(len(sshKeyOpts), 10)),
		)
	}

	if err := runForm(sshKeyGroup); err != nil {
		return nil, err
	}

	// Step 5: summary + confirm.

	confirm := false
	summaryNote := huh.NewNote().
		Title("New host summary").
		DescriptionFunc(func() string {
			return buildProvisionSummary(opts, locationLabels, serverTypeLabels, imageLabels, sshKeyLabels)
		}, &opts)

	confirmField := huh.NewConfirm().
		Title("Provision this host?").
		Value(&confirm)

	if err := runForm(huh.NewGroup(summaryNote, confirmField)); err != nil {
		return nil, err
	}
	if !confirm {
		return nil, ErrAborted
	}

	opts.Name = strings.TrimSpace(opts.Name)
	if len(opts.SSHKeys) == 0 {
		opts.SSHKeys = nil
	}

	return &opts, nil
}

func fetchCatalog(ctx context.Context, p *provision.Provisioner) (catalogData, error) {
	var data catalogData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		data.locations, err = p.Locations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.serverTypes, err = p.ServerTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.images, err = p.Images(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.sshKeys, err = p.SSHKeys(gctx)
		return err
	})

	return data, g.Wait()
}

// --- Option builders ---

func buildLocationOptions(locations []provision.Location, selected string) ([]huh.Option[string], map[string]string) {
	sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })

	opts := make([]huh.Option[string], 0, len(locations))
	labels := make(map[string]string, len(locations))
	for _, loc := range locations {
		label := locationLabel(loc)
		opts = append(opts, huh.NewOption(label, loc.Name))
		labels[loc.Name] = label
	}
	if selected != "" {
		opts = ensureOption(opts, labels, selected)
	}
	return opts, labels
}

func buildServerTypeOptions(types []provision.ServerType, selected string) ([]huh.Option[string], map[string]string) {
	opts := make([]huh.Option[string], 0, len(types))
	labels := make(map[string]string, len(types))
	for _, st := range types {
		label := serverTypeLabel(st)
		opts = append(opts, huh.NewOption(label, st.Name))
		labels[st.Name] = label
	}
	if selected != "" {
		opts = ensureOption(opts, labels, selected)
	}
	return opts, labels
}

// buildImageOptions filters to system images matching the plan's
// architecture. If none match (or the architecture is unknown), every
// system image is offered.
func buildImageOptions(images []provision.Image, arch, selected string) ([]huh.Option[string], map[string]string) {
	system := make([]provision.Image, 0, len(images))
	for _, img := range images {
		if img.Type == "system" {
			system = append(system, img)
		}
	}

	matching := make([]provision.Image, 0, len(system))
	if arch != "" {
		for _, img := range system {
			if strings.EqualFold(img.Architecture, arch) {
				matching = append(matching, img)
			}
		}
	}
	if len(matching) == 0 {
		matching = system
	}

	opts := make([]huh.Option[string], 0, len(matching))
	labels := make(map[string]string, len(matching))
	for _, img := range matching {
		label := imageLabel(img)
		opts = append(opts, huh.NewOption(label, img.Name))
		labels[img.Name] = label
	}
	if selected != "" {
		opts = ensureOption(opts, labels, selected)
	}
	return opts, labels
}

func buildSSHKeyOptions(keys []provision.SSHKey, selected []string) ([]huh.Option[string], map[string]string) {
	opts := make([]huh.Option[string], 0, len(keys))
	labels := make(map[string]string, len(keys))
	for _, key := range keys {
		label := sshKeyLabel(key)
		opts = append(opts, huh.NewOption(label, key.Name))
		labels[key.Name] = label
	}
	for _, v := range selected {
		opts = ensureOption(opts, labels, v)
	}
	return opts, labels
}

func ensureOption(opts []huh.Option[string], labels map[string]string, value string) []huh.Option[string] {
	if value == "" {
		return opts
	}
	if _, ok := labels[value]; ok {
		return opts
	}
	label := "Custom: " + value
	opts = append(opts, huh.NewOption(label, value))
	labels[value] = label
	return opts
}

// --- Filtering ---

func filterServerTypesByLocation(types []provision.ServerType, location string) []provision.ServerType {
	if location == "" {
		return types
	}
	filtered := make([]provision.ServerType, 0, len(types))
	for _, st := range types {
		for _, loc := range st.Locations {
			if strings.EqualFold(loc, location) {
				filtered = append(filtered, st)
				break
			}
		}
	}
	return filtered
}

func hasServerType(types []provision.ServerType, name string) bool {
	for _, st := range types {
		if strings.EqualFold(st.Name, name) || st.ID == name {
			return true
		}
	}
	return false
}

func architectureOf(types []provision.ServerType, name string) string {
	for _, st := range types {
		if strings.EqualFold(st.Name, name) || st.ID == name {
			return st.Architecture
		}
	}
	return ""
}

// --- Summary ---

func buildProvisionSummary(
	opts provision.Opts,
	locationLabels, serverTypeLabels, imageLabels, sshKeyLabels map[string]string,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:         %s\n", opts.Name)
	fmt.Fprintf(&b, "Location:     %s\n", labelFor(locationLabels, opts.Location, "Auto"))
	fmt.Fprintf(&b, "Server type:  %s\n", labelFor(serverTypeLabels, opts.ServerType, "Not selected"))
	fmt.Fprintf(&b, "Image:        %s\n", labelFor(imageLabels, opts.Image, opts.Image))

	if len(opts.SSHKeys) == 0 {
		fmt.Fprintf(&b, "SSH keys:     None (root password will be printed once)\n")
	} else {
		names := make([]string, 0, len(opts.SSHKeys))
		for _, k := range opts.SSHKeys {
			names = append(names, labelFor(sshKeyLabels, k, k))
		}
		fmt.Fprintf(&b, "SSH keys:     %s\n", strings.Join(names, ", "))
	}

	fmt.Fprintf(&b, "\nSetup notes:\n")
	fmt.Fprintf(&b, "  - The gloski agent is installed via cloud-init\n")
	fmt.Fprintf(&b, "  - A fresh agent API key goes into your system keyring\n")
	fmt.Fprintf(&b, "  - SSH password auth and root login are disabled\n")
	fmt.Fprintf(&b, "  - UFW firewall + fail2ban are enabled\n")

	return strings.TrimRight(b.String(), "\n")
}

// --- Label helpers ---

func locationLabel(loc provision.Location) string {
	parts := make([]string, 0, 2)
	if loc.City != "" {
		parts = append(parts, loc.City)
	}
	if loc.Country != "" {
		parts = append(parts, loc.Country)
	}
	if len(parts) == 0 {
		return loc.Name
	}
	return loc.Name + " - " + strings.Join(parts, ", ")
}

func serverTypeLabel(st provision.ServerType) string {
	label := fmt.Sprintf("%s - %d vCPU / %.0f GB / %d GB", st.Name, st.Cores, st.Memory, st.Disk)
	if st.PriceMonthly != "" {
		return label + " - " + st.PriceMonthly + "/mo"
	}
	return label
}

func imageLabel(img provision.Image) string {
	if img.Architecture == "" {
		return img.Name
	}
	return fmt.Sprintf("%s (%s)", img.Name, img.Architecture)
}

func sshKeyLabel(key provision.SSHKey) string {
	if key.Fingerprint == "" {
		return key.Name
	}
	return fmt.Sprintf("%s (%s)", key.Name, key.Fingerprint)
}

func labelFor(labels map[string]string, key, fallback string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	if key != "" {
		return key
	}
	return fallback
}
