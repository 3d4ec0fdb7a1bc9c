package linker

import (
	"errors"
	"time"
)

type LinkInput struct {
	Sources []RelocationSource
	Layout  Layout
	// .dynamic entries contributed by the rest of the link, e.g. DT_NEEDED
	Dynamic []DynamicEntry
}

type LinkResult struct {
	Allocation *Allocation
	Plan       *Plan
	Tables     *Tables
	Dynamic    *DynamicResult
	Image      *Image
}

// Link runs the GOT/PLT pipeline once. Stages run strictly in order; the
// first failure aborts the run with a *StageError and no partial result.
func Link(ctx *Context, in LinkInput) (*LinkResult, error) {
	if ctx.Arch == nil {
		return nil, errors.New("no target machine selected")
	}
	if in.Layout == nil {
		return nil, errors.New("no layout planner")
	}

	stage := StageCollecting
	res := &LinkResult{}
	start := time.Now()

	fail := func(err error) (*LinkResult, error) {
		ctx.Logger.Error("link failed", "stage", stage, "err", err)
		return nil, &StageError{Stage: stage, Err: err}
	}
	next := func(s Stage) {
		ctx.Logger.Debug("stage finished", "stage", stage, "elapsed", time.Since(start))
		stage = s
	}

	DefineGOTSymbol(ctx)
	reqs, err := CollectRelocations(ctx, in.Sources)
	if err != nil {
		return fail(err)
	}

	next(StageAllocating)
	if res.Allocation, err = AllocateSlots(ctx, reqs); err != nil {
		return fail(err)
	}

	next(StagePlanning)
	res.Plan = PlanSections(ctx, res.Allocation, in.Dynamic)
	addrs, err := PlaceSections(in.Layout, res.Plan)
	if err != nil {
		return fail(err)
	}

	next(StageBuilding)
	if res.Tables, err = BuildTables(ctx, res.Allocation, res.Plan, addrs); err != nil {
		return fail(err)
	}

	next(StagePatching)
	if res.Dynamic, err = PatchDynamic(ctx, res.Tables); err != nil {
		return fail(err)
	}

	next(StageEmitting)
	if res.Image, err = EmitSections(ctx, res.Tables, res.Dynamic); err != nil {
		return fail(err)
	}

	next(StageDone)
	ctx.Logger.Info("link finished",
		"arch", ctx.Arch.Name,
		"slots", res.Allocation.Total(),
		"sections", len(res.Image.Sections))
	return res, nil
}
