package linker

import (
	"golang.org/x/sync/errgroup"
)

// CollectRelocations scans all sources and keeps the requests that need
// an indirect slot. Sources are scanned concurrently but merged back in
// source order, so the result only depends on the input order.
func CollectRelocations(ctx *Context, sources []RelocationSource) ([]RelocationRequest, error) {
	scanned := make([][]RelocationRequest, len(sources))
	errs := make([]error, len(sources))

	g := errgroup.Group{}
	if ctx.Args.Threads > 0 {
		g.SetLimit(ctx.Args.Threads)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			scanned[i], errs[i] = scanSource(ctx, src)
			return nil
		})
	}
	// the group only bounds concurrency; errors stay per source so the
	// report follows input order, not whichever worker finished first
	_ = g.Wait()

	total := 0
	for i := range sources {
		if errs[i] != nil {
			return nil, errs[i]
		}
		total += len(scanned[i])
	}

	merged := make([]RelocationRequest, 0, total)
	for _, reqs := range scanned {
		merged = append(merged, reqs...)
	}

	ctx.Logger.Debug("collected relocations",
		"sources", len(sources), "slot_requests", len(merged))
	return merged, nil
}

func scanSource(ctx *Context, src RelocationSource) ([]RelocationRequest, error) {
	reqs, err := src.Relocations()
	if err != nil {
		return nil, err
	}
	return filterSlotRequests(ctx, reqs)
}

func filterSlotRequests(ctx *Context, reqs []RelocationRequest) ([]RelocationRequest, error) {
	out := make([]RelocationRequest, 0)
	for _, req := range reqs {
		_, needsSlot, err := ctx.Arch.SlotKindFor(req, ctx.Args.Shared)
		if err != nil {
			return nil, err
		}
		if needsSlot {
			out = append(out, req)
		}
	}
	return out, nil
}
