package methanol

import (
	"context"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

type financeConfig struct {
	TASCTOCMultiplier float64 `cty:"tasc_toc_multiplier"`
	FixedChargeRate   float64 `cty:"fixed_charge_rate"`
}

// Finance levelizes methanol cost with a fixed charge rate on the total
// as-spent capital. LCOM is the sum of its parts; electricity revenue
// enters as a negative part.
type Finance struct {
	cfg financeConfig
}

func newFinance(args registry.Args) (om.Component, error) {
	var cfg financeConfig
	if err := args.Decode("financial", &cfg); err != nil {
		return nil, err
	}
	return &Finance{cfg: cfg}, nil
}

var lcomParts = []string{
	"LCOM_meoh_capex",
	"LCOM_meoh_fopex",
	"LCOM_meoh_vopex",
	"LCOM_meoh_syn_cat",
	"LCOM_meoh_atr_cat",
	"LCOM_meoh",
	"LCOM_ng",
	"LCOM_elec",
	"LCOM",
}

// Setup implements om.Component.
func (c *Finance) Setup(s *om.Spec) error {
	s.AddInput("CapEx", om.Val(0), om.Units("USD"), om.Desc("Total capital expenditure in USD."))
	s.AddInput("Fixed_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddInput("Variable_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddInput("tasc_toc_multiplier", om.Val(c.cfg.TASCTOCMultiplier), om.Units("unitless"))
	s.AddInput("fixed_charge_rate", om.Val(c.cfg.FixedChargeRate), om.Units("unitless"))
	s.AddInput("methanol", om.Val(0), om.Shape(config.HoursPerYear), om.Units("kg/h"))
	s.AddInput("meoh_syn_cat_cost", om.Val(0), om.Units("USD/year"))
	s.AddInput("meoh_atr_cat_cost", om.Val(0), om.Units("USD/year"))
	s.AddInput("ng_cost", om.Val(0), om.Units("USD/year"))
	s.AddInput("elec_revenue", om.Val(0), om.Units("USD/year"))
	for _, name := range lcomParts {
		s.AddOutput(name, om.Val(0), om.Units("USD/kg"))
	}
	return nil
}

// Compute implements om.Component.
func (c *Finance) Compute(ctx context.Context, in, out *om.Vars) error {
	produced := in.Sum("methanol")
	if produced <= 0 {
		ctxlog.FromContext(ctx).Warn("No methanol produced; levelized cost set to zero.")
		for _, name := range lcomParts {
			out.Set(name, 0)
		}
		return nil
	}

	capex := in.Scalar("CapEx") * in.Scalar("fixed_charge_rate") * in.Scalar("tasc_toc_multiplier") / produced
	fopex := in.Scalar("Fixed_OpEx") / produced
	synCat := in.Scalar("meoh_syn_cat_cost") / produced
	atrCat := in.Scalar("meoh_atr_cat_cost") / produced
	// Catalyst is part of variable O&M but reported on its own.
	vopex := in.Scalar("Variable_OpEx")/produced - synCat - atrCat
	ng := in.Scalar("ng_cost") / produced
	elec := -in.Scalar("elec_revenue") / produced

	meoh := capex + fopex + vopex + synCat + atrCat
	out.Set("LCOM_meoh_capex", capex)
	out.Set("LCOM_meoh_fopex", fopex)
	out.Set("LCOM_meoh_vopex", vopex)
	out.Set("LCOM_meoh_syn_cat", synCat)
	out.Set("LCOM_meoh_atr_cat", atrCat)
	out.Set("LCOM_meoh", meoh)
	out.Set("LCOM_ng", ng)
	out.Set("LCOM_elec", elec)
	out.Set("LCOM", meoh+ng+elec)
	return nil
}
