// Command socoreflect compiles every shader manifest of an asset directory,
// builds its program against a headless device and prints what reflection
// found: variables, root slots, input layout and topology.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/spaghettifunk/soco/engine"
	"github.com/spaghettifunk/soco/engine/assets"
	"github.com/spaghettifunk/soco/engine/assets/loaders"
	"github.com/spaghettifunk/soco/engine/core"
	"github.com/spaghettifunk/soco/engine/renderer"
	"github.com/spaghettifunk/soco/engine/renderer/cache"
	"github.com/spaghettifunk/soco/engine/renderer/descriptors"
	"github.com/spaghettifunk/soco/engine/renderer/headless"
	"github.com/spaghettifunk/soco/engine/renderer/metadata"
	"github.com/spaghettifunk/soco/engine/renderer/naga"
	"github.com/spaghettifunk/soco/engine/renderer/shader"
)

const manifestSuffix = ".shader.toml"

type options struct {
	dir   string
	check bool
	hlsl  bool
	names []string
}

func main() {
	var opts options
	flag.StringVar(&opts.dir, "assets", "assets", "asset directory")
	flag.BoolVar(&opts.check, "check", false, "only report failures")
	flag.BoolVar(&opts.hlsl, "hlsl", false, "print the HLSL translation of every WGSL entry point")
	level := flag.String("log", "warn", "log level")
	flag.Parse()
	opts.names = flag.Args()

	if err := core.SetLogLevel(*level); err != nil {
		core.LogFatal("%s", err)
	}
	if err := run(opts, os.Stdout); err != nil {
		core.LogFatal("%s", err)
	}
}

// run reflects the named shaders, or every manifest under dir/shaders. All
// shaders are tried and the failures joined.
func run(opts options, out io.Writer) error {
	names := opts.names
	if len(names) == 0 {
		var err error
		if names, err = manifests(opts.dir); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no %s files under %s", core.ErrUnknownResource, manifestSuffix, filepath.Join(opts.dir, "shaders"))
	}

	defaults := engine.DefaultConfig()
	targets, err := defaults.Targets()
	if err != nil {
		return err
	}
	device := headless.NewDevice()
	table := headless.NewReflector()
	library := naga.NewLibrary(table)
	heap, err := descriptors.New(device, metadata.DescriptorHeapTypeCBVSRVUAV, 16)
	if err != nil {
		return err
	}
	rootSignatures := cache.NewRootSignatureCache(device)
	ctx := &renderer.Context{
		Device:         device,
		Reflector:      library,
		RootSignatures: rootSignatures,
		Pipelines:      cache.NewPipelineStateCache(device),
		Descriptors:    heap,
		FrameCount:     1,
		Targets:        targets,
	}

	am, err := assets.NewAssetManager(opts.dir, false)
	if err != nil {
		return err
	}
	defer am.Shutdown()
	if err := am.Initialize(library, table); err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if err := reflectShader(ctx, am, name, opts, out); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if opts.check {
			fmt.Fprintf(out, "ok   %s\n", name)
		}
	}
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(out, "FAIL %s\n", err)
		}
		return errors.Join(errs...)
	}
	core.LogInfo("reflected %d shaders, %d root signatures", len(names), rootSignatures.Len())
	return nil
}

func reflectShader(ctx *renderer.Context, am *assets.AssetManager, name string, opts options, out io.Writer) error {
	res, err := am.LoadAsset(name, metadata.ResourceTypeShader, nil)
	if err != nil {
		return err
	}
	data, ok := res.Data.(*loaders.ShaderResourceData)
	if !ok {
		return fmt.Errorf("%w: not a shader", core.ErrUnknownResource)
	}
	p, err := shader.NewProgram(ctx, data.Name, data.Stages)
	if err != nil {
		return err
	}
	if !opts.check {
		fmt.Fprint(out, shader.Summary(p))
	}
	if opts.hlsl && data.Source != "" {
		return translate(data, out)
	}
	return nil
}

// translate prints HLSL for each stage compiled from the WGSL source.
func translate(data *loaders.ShaderResourceData, out io.Writer) error {
	src, err := os.ReadFile(data.Source)
	if err != nil {
		return err
	}
	for _, code := range []*metadata.ShaderBytecode{data.Stages.VS, data.Stages.PS, data.Stages.CS} {
		if code == nil || code.EntryPoint == "" {
			continue
		}
		hlsl, regs, err := naga.TranslateHLSL(string(src), code.EntryPoint)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "// %s %s:%s\n", code.Stage, data.Name, code.EntryPoint)
		keys := maps.Keys(regs)
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "// %s -> %s\n", k, regs[k])
		}
		fmt.Fprintln(out, hlsl)
	}
	return nil
}

// manifests lists the shader names under dir/shaders, sorted.
func manifests(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "shaders", "*"+manifestSuffix))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.TrimSuffix(filepath.Base(p), manifestSuffix))
	}
	sort.Strings(names)
	return names, nil
}
