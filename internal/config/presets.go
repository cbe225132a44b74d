package config

import "sort"

const (
	ModuleSediment  = "sediment"
	ModuleCarbonate = "carbonate"
	ModuleShoreline = "shoreline"
)

// Preset is a named set of calculator inputs.
type Preset struct {
	Module      string
	Description string
	Sediment    SedimentConfig
	Carbonate   CarbonateConfig
	Shoreline   ShorelineConfig
}

var Presets = map[string]map[string]*Preset{
	ModuleSediment: {
		"fine_sand": {
			Module: ModuleSediment, Description: "tidal current over fine sand",
			Sediment: SedimentConfig{Velocity: 1.0, D50: 0.2},
		},
		"coarse_sand": {
			Module: ModuleSediment, Description: "moderate flow over coarse sand",
			Sediment: SedimentConfig{Velocity: 0.8, D50: 1.0},
		},
		"storm_flow": {
			Module: ModuleSediment, Description: "storm-driven flow over medium sand",
			Sediment: SedimentConfig{Velocity: 2.5, D50: 0.35},
		},
	},
	ModuleCarbonate: {
		"open_ocean": {
			Module: ModuleCarbonate, Description: "subtropical surface water",
			Carbonate: CarbonateConfig{Alkalinity: 2300, DIC: 2000, Temperature: 20, Salinity: 35},
		},
		"upwelling": {
			Module: ModuleCarbonate, Description: "CO2-rich upwelled water",
			Carbonate: CarbonateConfig{Alkalinity: 2250, DIC: 2150, Temperature: 12, Salinity: 33.8},
		},
		"cold_water": {
			Module: ModuleCarbonate, Description: "high-latitude surface water",
			Carbonate: CarbonateConfig{Alkalinity: 2280, DIC: 2120, Temperature: 2, Salinity: 34},
		},
	},
	ModuleShoreline: {
		"stable": {
			Module: ModuleShoreline, Description: "sheltered coast",
			Shoreline: ShorelineConfig{Rate: 0.1, Years: 50},
		},
		"eroding": {
			Module: ModuleShoreline, Description: "exposed sandy coast",
			Shoreline: ShorelineConfig{Rate: 0.5, Years: 10},
		},
		"severe": {
			Module: ModuleShoreline, Description: "retreating bluff",
			Shoreline: ShorelineConfig{Rate: 2.0, Years: 100},
		},
	},
}

func GetPreset(module, name string) *Preset {
	if modulePresets, ok := Presets[module]; ok {
		if p, ok := modulePresets[name]; ok {
			return p
		}
	}
	return nil
}

// FindPreset looks a preset up by name alone.
func FindPreset(name string) *Preset {
	for _, module := range Modules() {
		if p := GetPreset(module, name); p != nil {
			return p
		}
	}
	return nil
}

func ListPresets(module string) []string {
	modulePresets, ok := Presets[module]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modulePresets))
	for name := range modulePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Modules() []string {
	return []string{ModuleSediment, ModuleCarbonate, ModuleShoreline}
}
