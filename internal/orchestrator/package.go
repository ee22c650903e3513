package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"weipack/internal/archive"
	"weipack/internal/casedup"
	"weipack/internal/config"
	"weipack/internal/locator"
	"weipack/internal/nametmpl"
	"weipack/internal/output"
	"weipack/internal/pathutil"
	"weipack/internal/tp2"
	"weipack/internal/version"
	"weipack/internal/weidu"
)

// stagedBinary is a fetched WeiDU executable, cached per platform so multi
// mod runs download each binary once.
type stagedBinary struct {
	data []byte
	tag  string
	arch string
}

type packager struct {
	cfg      *config.Configuration
	outDir   string
	logger   *log.Logger
	out      *output.Output
	client   *weidu.Client
	binaries map[weidu.Platform]stagedBinary
}

// packageOne builds the archive for a single mod candidate. Staged artifacts
// (binaries, launcher scripts) are removed from the mod tree on every exit
// path.
func (p *packager) packageOne(ctx context.Context, candidate locator.ModCandidate) Result {
	tp2Base := pathutil.Tp2Name(candidate.Tp2Path)
	result := Result{Mod: tp2Base}

	baseName, err := p.resolveBaseName(candidate, tp2Base)
	if err != nil {
		result.Err = err
		return result
	}

	rawVersion, ok, err := tp2.ReadDeclaration(
		filepath.Join(candidate.ModRoot, filepath.FromSlash(candidate.Tp2Path)), tp2.Version)
	if err != nil {
		result.Err = fmt.Errorf("reading VERSION: %w", err)
		return result
	}
	normalized := ""
	if ok {
		normalized = version.Normalize(rawVersion, version.Options{Beautify: p.cfg.Beautify})
	}
	result.Version = normalized
	p.out.Verbose("%s: version %q", tp2Base, normalized)

	if !p.cfg.CaseSensitive {
		deleted, err := casedup.Reconcile(candidate.ModRoot, p.logger)
		if err != nil {
			result.Err = fmt.Errorf("reconciling duplicate-case files: %w", err)
			return result
		}
		result.DeletedDuplicates = deleted
	}

	// removables tracks everything staged into the mod tree for this
	// package; it is cleaned up best-effort regardless of outcome.
	var removables []string
	defer func() {
		for _, path := range removables {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				p.logger.Warn("removing staged file", "path", path, "err", err)
			}
		}
		removeEmptyDirs(candidate.ModRoot, removables)
	}()

	var staged []string
	if p.cfg.Type.NeedsBinary() {
		stagedPaths, tag, err := p.stageInstaller(ctx, candidate, tp2Base)
		if err != nil {
			result.Err = err
			return result
		}
		result.WeiDUTag = tag
		for _, rel := range stagedPaths {
			staged = append(staged, rel)
			removables = append(removables, filepath.Join(candidate.ModRoot, filepath.FromSlash(rel)))
		}
	}

	name := nametmpl.Resolve(p.template(), nametmpl.Bindings{
		Type:     string(p.cfg.Type),
		Arch:     p.archBinding(result.WeiDUTag),
		OSPrefix: p.osPrefix(),
		BaseName: baseName,
		Extra:    p.cfg.Extra,
		Version:  p.suffix(normalized),
	})
	if name == "" {
		result.Err = fmt.Errorf("name template resolved to an empty name")
		return result
	}

	destPath := filepath.Join(p.outDir, name+p.extension())
	include, exclude := p.selection(candidate, tp2Base, staged)

	if err := archive.Write(destPath, candidate.ModRoot, archive.Options{
		Include: include,
		Exclude: exclude,
	}); err != nil {
		result.Err = fmt.Errorf("writing archive: %w", err)
		return result
	}

	result.Archive = destPath
	return result
}

// resolveBaseName applies the naming selector: the tp2 base name, the INI
// sidecar display name (falling back to the tp2 name when absent), or a
// literal name.
func (p *packager) resolveBaseName(candidate locator.ModCandidate, tp2Base string) (string, error) {
	name := tp2Base
	switch p.cfg.Naming {
	case config.NamingTp2:
	case config.NamingIni:
		if display, ok := tp2.ModDisplayName(modDir(candidate), tp2Base); ok {
			name = display
		} else {
			p.out.Verbose("%s: no INI display name, falling back to tp2 name", tp2Base)
		}
	default:
		name = p.cfg.Naming
	}

	if p.cfg.LowerCase {
		name = strings.ToLower(name)
	}
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("resolved base name is empty")
	}
	return name, nil
}

// modDir returns the directory searched for INI sidecars: the tp2 file's
// directory for modern mods, the data folder for legacy mods.
func modDir(candidate locator.ModCandidate) string {
	if candidate.IsLegacy() {
		return candidate.LegacyModFolder
	}
	return filepath.Join(candidate.ModRoot, filepath.FromSlash(pathutil.Parent(candidate.Tp2Path)))
}

func (p *packager) template() string {
	if p.cfg.NameFmt != "" {
		return p.cfg.NameFmt
	}
	return nametmpl.Default
}

// suffix maps the suffix selector to the version fragment: the normalized
// version, nothing, or a literal suffix.
func (p *packager) suffix(normalized string) string {
	switch p.cfg.Suffix {
	case config.SuffixVersion:
		return normalized
	case config.SuffixNone:
		return ""
	default:
		return p.cfg.Suffix
	}
}

// osPrefix returns the platform fragment for the os_prefix placeholder.
// Plain archives carry none.
func (p *packager) osPrefix() string {
	switch p.cfg.Type {
	case config.TypeWindows:
		return p.cfg.PrefixWin
	case config.TypeLinux:
		return p.cfg.PrefixLin
	case config.TypeMacOS:
		return p.cfg.PrefixMac
	case config.TypeMulti:
		return "multi"
	}
	return ""
}

// archBinding resolves the arch placeholder. When a binary was fetched the
// architecture actually served wins over the configured one.
func (p *packager) archBinding(fetchedTag string) string {
	if fetchedTag != "" {
		return weidu.EffectiveArch(fetchedTag, string(p.cfg.Arch))
	}
	return string(p.cfg.Arch)
}

func (p *packager) extension() string {
	if p.cfg.Type == config.TypeIEMod {
		return ".iemod"
	}
	return ".zip"
}

// selection builds the include and exclude pattern lists for the archive.
// Inclusion is restricted to the candidate's own subtree so sibling mods
// sharing a scan root never leak into each other's archives: the mod folder
// plus any setup-<mod>.tp2 stub beside it for modern layouts, the tp2 file
// plus the declared data folder for legacy ones, and the staged installer
// files in both cases. A legacy data folder that collides with the backup
// exclusion keeps its subtree.
func (p *packager) selection(candidate locator.ModCandidate, tp2Base string, staged []string) (include, exclude []string) {
	exclude = archive.DefaultExcludes()

	var folderName string
	if candidate.IsLegacy() {
		folderName = filepath.Base(candidate.LegacyModFolder)
		include = append(include, candidate.Tp2Path, folderName+"/")
	} else {
		folderName, _, _ = strings.Cut(candidate.Tp2Path, "/")
		include = append(include, folderName+"/", "setup-"+tp2Base+".tp2")
	}
	include = append(include, staged...)

	for i, pattern := range exclude {
		if strings.EqualFold(pattern, folderName+"/") {
			exclude = append(exclude[:i], exclude[i+1:]...)
			break
		}
	}
	return include, exclude
}

// removeEmptyDirs prunes staging directories left behind after their files
// were removed.
func removeEmptyDirs(modRoot string, removed []string) {
	for _, path := range removed {
		dir := filepath.Dir(path)
		for dir != modRoot && strings.HasPrefix(dir, modRoot) {
			if err := os.Remove(dir); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}
