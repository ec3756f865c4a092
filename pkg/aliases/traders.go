package aliases

import "github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"

// BuildTraderTable registers every trader that gives a task or appears in a
// reputation reward. The wiki parser uses it to read reputation lines and to
// keep trader links out of item mentions.
func BuildTraderTable(list []tasks.StructuredTask) (*Table, error) {
	table := NewTable(DomainTraders)
	for _, t := range list {
		if t.Trader != "" {
			if err := table.Register(t.Trader, t.Trader); err != nil {
				return nil, err
			}
		}
		for _, rep := range t.Rewards.Reputation {
			if rep.Trader == "" {
				continue
			}
			if err := table.Register(rep.Trader, rep.Trader); err != nil {
				return nil, err
			}
		}
	}
	return table, nil
}
