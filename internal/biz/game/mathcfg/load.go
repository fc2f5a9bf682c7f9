package mathcfg

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mather/internal/biz/game/base"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// GameFile 游戏目录下的数学配置文件名
const GameFile = "game.yaml"

// 默认重试上限
const (
	defaultBoardAttempts  = 1000
	defaultBuyAttempts    = 100
	defaultRepeatAttempts = 100000
	defaultTumbleSteps    = 500
)

var defaultFenceTolerance = decimal.RequireFromString("0.001")

type rawBomb struct {
	AppearanceChance      float64     `yaml:"appearance_chance"`
	NoWinAppearanceChance float64     `yaml:"no_win_appearance_chance"`
	CountWeights          map[int]int `yaml:"count_weights"`
	MultWeights           map[int]int `yaml:"mult_weights"`
}

type rawDistribution struct {
	Criteria        string                      `yaml:"criteria"`
	Quota           float64                     `yaml:"quota"`
	WinCriteria     *decimal.Decimal            `yaml:"win_criteria"`
	ForceFreegame   bool                        `yaml:"force_freegame"`
	FeatureType     string                      `yaml:"feature_type"`
	ReelWeights     map[GameType]map[string]int `yaml:"reel_weights"`
	ScatterTriggers map[int]int                 `yaml:"scatter_triggers"`
	MultValues      map[GameType]map[int]int    `yaml:"mult_values"`
	BuyEntryPattern *BuyPattern                 `yaml:"buy_entry_pattern"`
}

type rawMode struct {
	Name          string                     `yaml:"name"`
	Cost          decimal.Decimal            `yaml:"cost"`
	BuyBonus      bool                       `yaml:"buy_bonus"`
	Fences        map[string]decimal.Decimal `yaml:"fences"`
	Distributions []rawDistribution          `yaml:"distributions"`
}

type rawGame struct {
	ID             string          `yaml:"id"`
	Name           string          `yaml:"name"`
	WinCap         decimal.Decimal `yaml:"wincap"`
	RTP            decimal.Decimal `yaml:"rtp"`
	NumReels       int             `yaml:"num_reels"`
	NumRows        []int           `yaml:"num_rows"`
	IncludePadding bool            `yaml:"include_padding"`
	Symbols        struct {
		Scatter      string `yaml:"scatter"`
		SuperScatter string `yaml:"super_scatter"`
		Bomb         string `yaml:"bomb"`
	} `yaml:"symbols"`
	SuperRequirement int `yaml:"super_scatter_upgrade_requirement"`
	FreeSpins        struct {
		Initial           int `yaml:"initial"`
		RetriggerSpins    int `yaml:"retrigger_spins"`
		RetriggerScatters int `yaml:"retrigger_scatter_requirement"`
		Max               int `yaml:"max"`
	} `yaml:"free_spins"`
	RetriggerCaps  [][2]float64            `yaml:"retrigger_caps"`
	ScatterPayouts map[int]decimal.Decimal `yaml:"scatter_payouts"`
	Paytable       []struct {
		Min  int                        `yaml:"min"`
		Max  int                        `yaml:"max"`
		Pays map[string]decimal.Decimal `yaml:"pays"`
	} `yaml:"paytable"`
	Reels           map[string]string  `yaml:"reels"`
	BombSettings    map[string]rawBomb `yaml:"bomb_settings"`
	BuyBombSettings map[string]rawBomb `yaml:"buy_bomb_settings"`
	OverflowFirst   GameType           `yaml:"wincap_overflow_first"`
	FenceTolerance  *decimal.Decimal   `yaml:"fence_tolerance"`
	Attempts        struct {
		Board    int `yaml:"board"`
		BuyEntry int `yaml:"buy_entry"`
		Repeat   int `yaml:"repeat"`
		Tumble   int `yaml:"tumble"`
	} `yaml:"attempts"`
	WinLevels [][2]float64 `yaml:"win_levels"`
	Modes     []rawMode    `yaml:"modes"`
}

// Load 读取游戏目录（game.yaml + 卷轴 CSV）并校验
func Load(dir string) (*GameConfig, error) {
	raw, err := os.ReadFile(filepath.Join(dir, GameFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", GameFile, err)
	}
	cfg, err := Parse(raw, func(name string) (ReelStrip, error) {
		return LoadReelFile(filepath.Join(dir, name))
	})
	if err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse 解析 YAML，reelLoader 负责按文件名读取卷轴；不做校验
func Parse(data []byte, reelLoader func(name string) (ReelStrip, error)) (*GameConfig, error) {
	var rg rawGame
	if err := yaml.Unmarshal(data, &rg); err != nil {
		return nil, base.Malformedf("decode game yaml: %v", err)
	}

	cfg := &GameConfig{
		ID:             rg.ID,
		Name:           rg.Name,
		WinCap:         rg.WinCap,
		RTP:            rg.RTP,
		NumReels:       rg.NumReels,
		NumRows:        rg.NumRows,
		IncludePadding: rg.IncludePadding,
		Symbols: Symbols{
			Scatter:      rg.Symbols.Scatter,
			SuperScatter: rg.Symbols.SuperScatter,
			Bomb:         rg.Symbols.Bomb,
		},
		FreeSpins: FreeSpins{
			Initial:           rg.FreeSpins.Initial,
			RetriggerSpins:    rg.FreeSpins.RetriggerSpins,
			RetriggerScatters: rg.FreeSpins.RetriggerScatters,
			Max:               rg.FreeSpins.Max,
			SuperRequirement:  rg.SuperRequirement,
		},
		ScatterPayouts: rg.ScatterPayouts,
		Paytable:       Paytable{},
		Reels:          make(map[string]ReelStrip, len(rg.Reels)),
		Bombs:          toTiers(rg.BombSettings),
		BuyBombs:       toTiers(rg.BuyBombSettings),
		OverflowFirst:  rg.OverflowFirst,
		FenceTolerance: defaultFenceTolerance,
		Attempts: Attempts{
			Board:    orDefault(rg.Attempts.Board, defaultBoardAttempts),
			BuyEntry: orDefault(rg.Attempts.BuyEntry, defaultBuyAttempts),
			Repeat:   orDefault(rg.Attempts.Repeat, defaultRepeatAttempts),
			Tumble:   orDefault(rg.Attempts.Tumble, defaultTumbleSteps),
		},
	}
	if cfg.OverflowFirst == "" {
		cfg.OverflowFirst = FreeGame
	}
	if rg.FenceTolerance != nil {
		cfg.FenceTolerance = *rg.FenceTolerance
	}
	if len(cfg.NumRows) == 0 && cfg.NumReels > 0 {
		cfg.NumRows = make([]int, cfg.NumReels)
		for i := range cfg.NumRows {
			cfg.NumRows[i] = 5
		}
	}
	for _, e := range rg.RetriggerCaps {
		cfg.FreeSpins.RetriggerCapsTable = append(cfg.FreeSpins.RetriggerCapsTable, RetriggerEntry{Cap: int(e[0]), Cum: e[1]})
	}
	for _, tier := range rg.Paytable {
		for sym, pay := range tier.Pays {
			cfg.Paytable[sym] = append(cfg.Paytable[sym], PayRange{Min: tier.Min, Max: tier.Max, Pay: pay})
		}
	}
	for i, lv := range rg.WinLevels {
		cfg.WinLevels = append(cfg.WinLevels, WinLevel{Index: i, Min: lv[0], Max: lv[1]})
	}

	for id, file := range rg.Reels {
		strip, err := reelLoader(file)
		if err != nil {
			return nil, base.Malformedf("reel %s: %v", id, err)
		}
		cfg.Reels[id] = strip
	}

	for _, rm := range rg.Modes {
		mode := &BetMode{
			Name:     rm.Name,
			Cost:     rm.Cost,
			BuyBonus: rm.BuyBonus,
			Fences:   rm.Fences,
		}
		for _, rd := range rm.Distributions {
			mode.Distributions = append(mode.Distributions, toDistribution(rd))
		}
		cfg.Modes = append(cfg.Modes, mode)
	}
	return cfg, nil
}

func toDistribution(rd rawDistribution) *Distribution {
	d := &Distribution{
		Criteria:    rd.Criteria,
		Quota:       rd.Quota,
		WinCriteria: rd.WinCriteria,
		Conditions: Condition{
			ReelWeights:     make(map[GameType]base.Weighted[string], len(rd.ReelWeights)),
			ForceFreegame:   rd.ForceFreegame,
			FeatureType:     rd.FeatureType,
			ScatterTriggers: base.NewWeighted(rd.ScatterTriggers),
			MultValues:      make(map[GameType]base.Weighted[int], len(rd.MultValues)),
			BuyEntry:        rd.BuyEntryPattern,
		},
	}
	for gt, w := range rd.ReelWeights {
		d.Conditions.ReelWeights[gt] = base.NewWeighted(w)
	}
	for gt, w := range rd.MultValues {
		d.Conditions.MultValues[gt] = base.NewWeighted(w)
	}
	return d
}

func toTiers(m map[string]rawBomb) BombTiers {
	conv := func(rb rawBomb) BombSettings {
		return BombSettings{
			Appearance:      rb.AppearanceChance,
			NoWinAppearance: rb.NoWinAppearanceChance,
			Counts:          base.NewWeighted(rb.CountWeights),
			Mults:           base.NewWeighted(rb.MultWeights),
		}
	}
	return BombTiers{
		Regular: conv(m[FeatureRegular]),
		Super:   conv(m[FeatureSuper]),
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// LoadReelFile 读取卷轴 CSV
func LoadReelFile(path string) (ReelStrip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadReels(bytes.NewReader(raw))
}

// ReadReels CSV 每行一个卷轴位置，每列对应一轴
func ReadReels(r io.Reader) (ReelStrip, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty reel file")
	}
	cols := len(records[0])
	strip := make(ReelStrip, cols)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, fmt.Errorf("row %d: %d columns, want %d", i+1, len(rec), cols)
		}
		for c, sym := range rec {
			sym = strings.TrimSpace(sym)
			if sym == "" {
				return nil, fmt.Errorf("row %d col %d: empty symbol", i+1, c+1)
			}
			strip[c] = append(strip[c], sym)
		}
	}
	return strip, nil
}

// WriteReels 按 ReadReels 的格式写出；各轴长度需一致
func WriteReels(w io.Writer, strip ReelStrip) error {
	if len(strip) == 0 {
		return fmt.Errorf("empty strip")
	}
	n := len(strip[0])
	cw := csv.NewWriter(w)
	for row := 0; row < n; row++ {
		rec := make([]string, len(strip))
		for c := range strip {
			if len(strip[c]) != n {
				return fmt.Errorf("reel %d: length %d, want %d", c, len(strip[c]), n)
			}
			rec[c] = strip[c][row]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
