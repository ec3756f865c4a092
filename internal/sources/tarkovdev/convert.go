package tarkovdev

import (
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
	"github.com/Nivmizz7/tarkov-data-overlay/pkg/wikitext"
)

func convertTask(w taskWire, mode tasks.GameMode) tasks.StructuredTask {
	t := tasks.StructuredTask{
		ID:             w.ID,
		Name:           w.Name,
		NormalizedName: w.NormalizedName,
		WikiLink:       w.WikiLink,
		MinPlayerLevel: w.MinPlayerLevel,
		GameModes:      []tasks.GameMode{mode},
		Rewards:        tasks.Reward{Experience: w.Experience},
	}
	if w.Trader != nil {
		t.Trader = w.Trader.Name
	}
	if w.Map != nil && w.Map.Name != "" {
		t.Map = &tasks.MapRef{ID: w.Map.ID, Name: w.Map.Name}
	}
	for _, req := range w.TaskRequirements {
		if req.Task != nil {
			t.Requirements = append(t.Requirements, tasks.TaskRef{ID: req.Task.ID, Name: req.Task.Name})
		}
	}
	for _, o := range w.Objectives {
		t.Objectives = append(t.Objectives, convertObjective(o))
	}
	if w.FinishRewards != nil {
		for _, s := range w.FinishRewards.TraderStanding {
			if s.Trader != nil {
				t.Rewards.Reputation = append(t.Rewards.Reputation, tasks.TraderStanding{Trader: s.Trader.Name, Delta: s.Standing})
			}
		}
		for _, it := range w.FinishRewards.Items {
			if it.Item == nil {
				continue
			}
			if code := wikitext.Currency(it.Item.Name); code != "" {
				t.Rewards.Money = append(t.Rewards.Money, tasks.MoneyReward{Currency: code, Amount: it.Count})
				continue
			}
			t.Rewards.Items = append(t.Rewards.Items, tasks.ItemReward{Item: itemRef(*it.Item), Count: it.Count})
		}
	}
	return t
}

func convertObjective(w objectiveWire) tasks.StructuredObjective {
	o := tasks.StructuredObjective{
		ID:          w.ID,
		Description: strings.TrimSpace(w.Description),
		Type:        tasks.ParseObjectiveType(w.Type),
		Kind:        w.Type,
		Count:       w.Count,
		FoundInRaid: w.FoundInRaid,
	}
	for _, m := range w.Maps {
		o.Maps = append(o.Maps, tasks.MapRef{ID: m.ID, Name: m.Name})
	}

	items := append(append([]named(nil), w.Items...), w.UseAny...)
	for _, single := range []*named{w.QuestItem, w.MarkerItem, w.BuildItem} {
		if single != nil {
			items = append(items, *single)
		}
	}
	for _, it := range items {
		o.Items = append(o.Items, itemRef(it))
	}

	for _, group := range w.RequiredKeys {
		refs := make([]tasks.ItemRef, 0, len(group))
		for _, k := range group {
			refs = append(refs, itemRef(k))
		}
		o.RequiredKeys = append(o.RequiredKeys, refs)
	}
	if w.SkillLevel != nil {
		o.SkillName = w.SkillLevel.Name
		if o.Count == nil {
			o.Count = tasks.Ptr(w.SkillLevel.Level)
		}
	}
	return o
}

func itemRef(n named) tasks.ItemRef {
	return tasks.ItemRef{ID: n.ID, Name: n.Name, ShortName: n.ShortName}
}
