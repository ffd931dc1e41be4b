package mcp

import (
	"context"

	"github.com/gregmcinnes/topset/internal/strength"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetTrainingMaxes = mcp.NewTool("get_training_maxes",
	mcp.WithDescription("Week-by-week training max history for one lift, ascending by week."),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name (e.g. Squat, Bench, Deadlift, Press)")),
)

var toolGetLogEntries = mcp.NewTool("get_log_entries",
	mcp.WithDescription("Recent logged sets for a lift: weight, reps vs target, and estimated one-rep max, newest first."),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name")),
	mcp.WithNumber("limit", mcp.Description("Maximum entries to return. Defaults to 20.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("Best estimated one-rep max per lift across all history."),
)

var toolGetPrescriptions = mcp.NewTool("get_prescriptions",
	mcp.WithDescription("Resolve the active program into a day's working prescriptions: sets, reps, weights, and which set is the rep-out."),
	mcp.WithNumber("week", mcp.Required(), mcp.Description("Cycle week number (1-based)")),
	mcp.WithNumber("day", mcp.Required(), mcp.Description("Training day number (1-based)")),
)

var toolComputeStrengthScore = mcp.NewTool("compute_strength_score",
	mcp.WithDescription("Compute a bodyweight-normalized strength score (Wilks, DOTS, or IPF GL points) and its rating tier."),
	mcp.WithString("formula", mcp.Required(), mcp.Description("Scoring formula"), mcp.Enum("wilks", "dots", "ipfgl")),
	mcp.WithNumber("total_kg", mcp.Required(), mcp.Description("Total lifted in kilograms")),
	mcp.WithNumber("bodyweight_kg", mcp.Required(), mcp.Description("Lifter bodyweight in kilograms")),
	mcp.WithString("sex", mcp.Description("'male' or 'female'. Defaults to male."), mcp.Enum("male", "female")),
)

var toolGetStrengthPercentile = mcp.NewTool("get_strength_percentile",
	mcp.WithDescription("Look up where a lift falls among OpenPowerlifting competitors of the same sex and weight class."),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Competition lift"), mcp.Enum("squat", "bench", "deadlift")),
	mcp.WithNumber("lift_kg", mcp.Required(), mcp.Description("Lift value in kilograms")),
	mcp.WithNumber("bodyweight_kg", mcp.Required(), mcp.Description("Lifter bodyweight in kilograms")),
	mcp.WithString("sex", mcp.Description("'male' or 'female'. Defaults to male."), mcp.Enum("male", "female")),
)

// --- Tool handlers ---

func (h *handlers) getTrainingMaxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lift, err := req.RequireString("lift")
	if err != nil {
		return mcp.NewToolResultError("lift parameter is required"), nil
	}

	history, err := h.ds.TrainingMaxHistory(ctx, lift)
	if err != nil {
		h.log.Error("mcp get_training_maxes", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(history)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getLogEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lift, err := req.RequireString("lift")
	if err != nil {
		return mcp.NewToolResultError("lift parameter is required"), nil
	}
	limit := req.GetInt("limit", 20)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be >= 1"), nil
	}

	entries, err := h.ds.LogHistory(ctx, lift, limit)
	if err != nil {
		h.log.Error("mcp get_log_entries", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.ds.PersonalRecords(ctx)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPrescriptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.resolver == nil {
		return mcp.NewToolResultError("no program configured"), nil
	}
	week := req.GetInt("week", 0)
	day := req.GetInt("day", 0)
	if week < 1 || day < 1 {
		return mcp.NewToolResultError("week and day must be >= 1"), nil
	}

	mains, accessories, err := h.resolver.DayPrescriptions(ctx, week, day)
	if err != nil {
		h.log.Error("mcp get_prescriptions", "error", err)
		return mcp.NewToolResultError("resolving prescriptions: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"mains":       mains,
		"accessories": accessories,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) computeStrengthScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	formulaStr, err := req.RequireString("formula")
	if err != nil {
		return mcp.NewToolResultError("formula parameter is required"), nil
	}
	totalKg := req.GetFloat("total_kg", 0)
	bodyweightKg := req.GetFloat("bodyweight_kg", 0)
	male := req.GetString("sex", "male") != "female"

	formula := strength.Formula(formulaStr)
	score, err := strength.Score(formula, totalKg, bodyweightKg, male)
	if err != nil {
		return mcp.NewToolResultError("score undefined: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"formula": formulaStr,
		"score":   score,
		"rating":  strength.RatingFor(formula, score),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getStrengthPercentile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	liftStr, err := req.RequireString("lift")
	if err != nil {
		return mcp.NewToolResultError("lift parameter is required"), nil
	}
	liftKg := req.GetFloat("lift_kg", 0)
	bodyweightKg := req.GetFloat("bodyweight_kg", 0)
	male := req.GetString("sex", "male") != "female"

	pct, err := strength.Percentile(strength.CompetitionLift(liftStr), liftKg, bodyweightKg, male)
	if err != nil {
		return mcp.NewToolResultError("percentile lookup failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"lift":         liftStr,
		"percentile":   pct,
		"weight_class": strength.WeightClass(bodyweightKg, male),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
