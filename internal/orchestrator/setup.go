package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"weipack/internal/config"
	"weipack/internal/locator"
	"weipack/internal/weidu"
)

// launcherTemplate is the shell launcher stamped beside non-Windows WeiDU
// binaries. WeiDU expects to run from the game directory with the tp2 path
// passed explicitly; the optional autoupdate stanza switches to the newest
// setup binary already present in the game directory.
const launcherTemplate = `#!/bin/sh
cd "$(dirname "$0")"

binary="./{{.BinaryPath}}"
{{- if .Autoupdate}}

# Use the newest WeiDU already present in the game directory, if any.
for candidate in ./setup-*; do
    [ -f "$candidate" ] && [ -x "$candidate" ] || continue
    if [ "$candidate" -nt "$binary" ]; then
        binary="$candidate"
    fi
done
{{- end}}

chmod +x "$binary" 2>/dev/null
exec "$binary" "{{.Tp2Path}}" --log "setup-{{.ModName}}.debug" "$@"
`

type launcherData struct {
	BinaryPath string
	Tp2Path    string
	ModName    string
	Autoupdate bool
}

var launcherTmpl = template.Must(template.New("launcher").Parse(launcherTemplate))

// stageInstaller places the WeiDU binary (or binaries, for multi packages)
// and the matching launcher scripts into the mod root. It returns the
// mod-root-relative slash paths of everything staged and the release tag the
// binaries came from.
func (p *packager) stageInstaller(ctx context.Context, candidate locator.ModCandidate, tp2Base string) ([]string, string, error) {
	switch p.cfg.Type {
	case config.TypeWindows:
		binary, err := p.fetchPlatform(ctx, weidu.Windows)
		if err != nil {
			return nil, "", err
		}
		rel := "setup-" + tp2Base + ".exe"
		if err := p.stageFile(candidate.ModRoot, rel, binary.data, 0o755); err != nil {
			return nil, "", err
		}
		return []string{rel}, binary.tag, nil

	case config.TypeLinux:
		return p.stageUnix(ctx, candidate, tp2Base, weidu.Linux, "setup-"+tp2Base+".sh")

	case config.TypeMacOS:
		return p.stageUnix(ctx, candidate, tp2Base, weidu.Mac, "setup-"+tp2Base+".command")

	case config.TypeMulti:
		return p.stageMulti(ctx, candidate, tp2Base)
	}

	return nil, "", fmt.Errorf("package type %q does not bundle a binary", p.cfg.Type)
}

// stageUnix stages a single non-Windows binary as "weidu" at the mod root
// with a launcher script beside it.
func (p *packager) stageUnix(ctx context.Context, candidate locator.ModCandidate, tp2Base string, platform weidu.Platform, launcherName string) ([]string, string, error) {
	binary, err := p.fetchPlatform(ctx, platform)
	if err != nil {
		return nil, "", err
	}

	binaryRel := "weidu"
	if err := p.stageFile(candidate.ModRoot, binaryRel, binary.data, 0o755); err != nil {
		return nil, "", err
	}

	if err := p.stageLauncher(candidate, launcherName, launcherData{
		BinaryPath: binaryRel,
		Tp2Path:    candidate.Tp2Path,
		ModName:    tp2Base,
	}); err != nil {
		return nil, "", err
	}

	return []string{binaryRel, launcherName}, binary.tag, nil
}

// stageMulti stages binaries for all three platforms: the Windows installer
// under the setup-<mod>.exe convention, and the unix binaries in a weidu/
// staging tree referenced by the launcher scripts.
func (p *packager) stageMulti(ctx context.Context, candidate locator.ModCandidate, tp2Base string) ([]string, string, error) {
	windows, err := p.fetchPlatform(ctx, weidu.Windows)
	if err != nil {
		return nil, "", err
	}
	linux, err := p.fetchPlatform(ctx, weidu.Linux)
	if err != nil {
		return nil, "", err
	}
	mac, err := p.fetchPlatform(ctx, weidu.Mac)
	if err != nil {
		return nil, "", err
	}

	staged := []string{
		"setup-" + tp2Base + ".exe",
		"weidu/lin/weidu",
		"weidu/mac/weidu",
		"setup-" + tp2Base + ".sh",
		"setup-" + tp2Base + ".command",
	}

	if err := p.stageFile(candidate.ModRoot, staged[0], windows.data, 0o755); err != nil {
		return nil, "", err
	}
	if err := p.stageFile(candidate.ModRoot, staged[1], linux.data, 0o755); err != nil {
		return nil, "", err
	}
	if err := p.stageFile(candidate.ModRoot, staged[2], mac.data, 0o755); err != nil {
		return nil, "", err
	}

	if err := p.stageLauncher(candidate, staged[3], launcherData{
		BinaryPath: "weidu/lin/weidu",
		Tp2Path:    candidate.Tp2Path,
		ModName:    tp2Base,
		Autoupdate: p.cfg.MultiAutoupdate,
	}); err != nil {
		return nil, "", err
	}
	if err := p.stageLauncher(candidate, staged[4], launcherData{
		BinaryPath: "weidu/mac/weidu",
		Tp2Path:    candidate.Tp2Path,
		ModName:    tp2Base,
		Autoupdate: p.cfg.MultiAutoupdate,
	}); err != nil {
		return nil, "", err
	}

	return staged, windows.tag, nil
}

// fetchPlatform downloads the binary for a platform once per run.
func (p *packager) fetchPlatform(ctx context.Context, platform weidu.Platform) (stagedBinary, error) {
	if cached, ok := p.binaries[platform]; ok {
		return cached, nil
	}
	if p.client == nil {
		return stagedBinary{}, fmt.Errorf("no WeiDU client configured")
	}

	p.out.Verbose("fetching WeiDU %s for %s/%s", p.cfg.WeiDU, platform, p.cfg.Arch)
	data, tag, arch, err := p.client.FetchBinary(ctx, platform, string(p.cfg.Arch), p.cfg.WeiDU)
	if err != nil {
		return stagedBinary{}, fmt.Errorf("fetching WeiDU binary: %w", err)
	}

	binary := stagedBinary{data: data, tag: tag, arch: arch}
	p.binaries[platform] = binary
	return binary, nil
}

// stageFile writes data into the mod tree at the given relative slash path.
func (p *packager) stageFile(modRoot, rel string, data []byte, mode os.FileMode) error {
	full := filepath.Join(modRoot, filepath.FromSlash(rel))
	if strings.Contains(rel, "/") {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("staging %s: %w", rel, err)
		}
	}
	if err := os.WriteFile(full, data, mode); err != nil {
		return fmt.Errorf("staging %s: %w", rel, err)
	}
	return nil
}

// stageLauncher renders the launcher template to a script in the mod root.
func (p *packager) stageLauncher(candidate locator.ModCandidate, name string, data launcherData) error {
	f, err := os.OpenFile(filepath.Join(candidate.ModRoot, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}
	if err := launcherTmpl.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}
	return nil
}
