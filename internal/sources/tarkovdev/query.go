package tarkovdev

// tasksQuery selects every field reconciliation compares. Objective
// subtypes are read through inline fragments; fields whose name clashes
// across subtypes are aliased.
const tasksQuery = `query TaskCheck($gameMode: GameMode) {
  tasks(lang: en, gameMode: $gameMode) {
    id
    name
    normalizedName
    wikiLink
    minPlayerLevel
    experience
    trader { name }
    map { id name }
    taskRequirements { task { id name } }
    objectives {
      id
      type
      description
      maps { id name }
      ... on TaskObjectiveItem {
        count
        foundInRaid
        items { id name shortName }
      }
      ... on TaskObjectiveQuestItem {
        count
        questItem { id name shortName }
      }
      ... on TaskObjectiveShoot {
        count
        usingWeapon { id name shortName }
      }
      ... on TaskObjectiveExtract {
        count
      }
      ... on TaskObjectiveUseItem {
        count
        useAny { id name shortName }
      }
      ... on TaskObjectiveMark {
        markerItem { id name shortName }
      }
      ... on TaskObjectiveBuildItem {
        buildItem: item { id name shortName }
      }
      ... on TaskObjectiveSkill {
        skillLevel { name level }
      }
      ... on TaskObjectiveBasic {
        requiredKeys { id name shortName }
      }
    }
    finishRewards {
      traderStanding { trader { name } standing }
      items { count item { id name shortName } }
    }
  }
}`

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data struct {
		Tasks []taskWire `json:"tasks"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type named struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type taskWire struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	NormalizedName   string `json:"normalizedName"`
	WikiLink         string `json:"wikiLink"`
	MinPlayerLevel   *int   `json:"minPlayerLevel"`
	Experience       int    `json:"experience"`
	Trader           *named `json:"trader"`
	Map              *named `json:"map"`
	TaskRequirements []struct {
		Task *named `json:"task"`
	} `json:"taskRequirements"`
	Objectives    []objectiveWire `json:"objectives"`
	FinishRewards *struct {
		TraderStanding []struct {
			Trader   *named  `json:"trader"`
			Standing float64 `json:"standing"`
		} `json:"traderStanding"`
		Items []struct {
			Count int    `json:"count"`
			Item  *named `json:"item"`
		} `json:"items"`
	} `json:"finishRewards"`
}

type objectiveWire struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Maps         []named   `json:"maps"`
	Count        *int      `json:"count"`
	FoundInRaid  *bool     `json:"foundInRaid"`
	Items        []named   `json:"items"`
	QuestItem    *named    `json:"questItem"`
	UsingWeapon  []named   `json:"usingWeapon"`
	UseAny       []named   `json:"useAny"`
	MarkerItem   *named    `json:"markerItem"`
	BuildItem    *named    `json:"buildItem"`
	RequiredKeys [][]named `json:"requiredKeys"`
	SkillLevel   *struct {
		Name  string `json:"name"`
		Level int    `json:"level"`
	} `json:"skillLevel"`
}
