package stations

import (
	"fmt"
	"sort"
	"strings"
)

// Station is one searchable railway station. Code is the ek_ fragment SUUMO
// uses in its rental search URLs.
type Station struct {
	Name string
	Code string
	Line string
}

// SearchURL builds the rental search URL for this station in the given
// prefecture.
func (s Station) SearchURL(prefecture string) string {
	return fmt.Sprintf("https://suumo.jp/chintai/%s/%s/", prefecture, s.Code)
}

// UnknownStationError is returned when a requested station is not in the
// directory.
type UnknownStationError struct {
	Name string
}

func (e *UnknownStationError) Error() string {
	return fmt.Sprintf("unsupported station %q", e.Name)
}

// directory lists every supported station. The Yamanote entries walk the
// loop; scrape order follows this declaration order.
var directory = []Station{
	{Name: "渋谷", Code: "ek_17640", Line: "yamanote"},
	{Name: "新宿", Code: "ek_19670", Line: "yamanote"},
	{Name: "池袋", Code: "ek_02060", Line: "yamanote"},
	{Name: "上野", Code: "ek_04530", Line: "yamanote"},
	{Name: "東京", Code: "ek_30140", Line: "yamanote"},
	{Name: "有楽町", Code: "ek_41680", Line: "yamanote"},
	{Name: "新橋", Code: "ek_20370", Line: "yamanote"},
	{Name: "浜松町", Code: "ek_33030", Line: "yamanote"},
	{Name: "田町", Code: "ek_22790", Line: "yamanote"},
	{Name: "品川", Code: "ek_17630", Line: "yamanote"},
	{Name: "大崎", Code: "ek_06280", Line: "yamanote"},
	{Name: "五反田", Code: "ek_14840", Line: "yamanote"},
	{Name: "目黒", Code: "ek_39210", Line: "yamanote"},
	{Name: "恵比寿", Code: "ek_04150", Line: "yamanote"},
	{Name: "原宿", Code: "ek_33060", Line: "yamanote"},
	{Name: "代々木", Code: "ek_40960", Line: "yamanote"},
	{Name: "新大久保", Code: "ek_20220", Line: "yamanote"},
	{Name: "高田馬場", Code: "ek_22470", Line: "yamanote"},
	{Name: "目白", Code: "ek_39220", Line: "yamanote"},
	{Name: "大塚", Code: "ek_06380", Line: "yamanote"},
	{Name: "巣鴨", Code: "ek_18120", Line: "yamanote"},
	{Name: "駒込", Code: "ek_14990", Line: "yamanote"},
	{Name: "田端", Code: "ek_22870", Line: "yamanote"},
	{Name: "西日暮里", Code: "ek_29230", Line: "yamanote"},
	{Name: "日暮里", Code: "ek_33330", Line: "yamanote"},
	{Name: "鶯谷", Code: "ek_04590", Line: "yamanote"},
	{Name: "御徒町", Code: "ek_39070", Line: "yamanote"},
	{Name: "秋葉原", Code: "ek_01090", Line: "yamanote"},
	{Name: "神田", Code: "ek_09950", Line: "yamanote"},

	{Name: "中野", Code: "ek_27280", Line: "chuo"},
	{Name: "吉祥寺", Code: "ek_11640", Line: "chuo"},
	{Name: "三鷹", Code: "ek_36880", Line: "chuo"},
	{Name: "荻窪", Code: "ek_06640", Line: "chuo"},
	{Name: "阿佐ヶ谷", Code: "ek_01070", Line: "chuo"},
	{Name: "高円寺", Code: "ek_22290", Line: "chuo"},
	{Name: "国分寺", Code: "ek_15330", Line: "chuo"},
	{Name: "立川", Code: "ek_23520", Line: "chuo"},

	{Name: "調布", Code: "ek_24440", Line: "keio"},
	{Name: "府中", Code: "ek_34370", Line: "keio"},
	{Name: "聖蹟桜ヶ丘", Code: "ek_17890", Line: "keio"},
	{Name: "多摩センター", Code: "ek_22760", Line: "keio"},

	{Name: "下北沢", Code: "ek_16770", Line: "odakyu"},
	{Name: "経堂", Code: "ek_12020", Line: "odakyu"},
	{Name: "成城学園前", Code: "ek_18380", Line: "odakyu"},
	{Name: "登戸", Code: "ek_30130", Line: "odakyu"},
	{Name: "新百合ヶ丘", Code: "ek_20930", Line: "odakyu"},
	{Name: "町田", Code: "ek_34220", Line: "odakyu"},

	{Name: "自由が丘", Code: "ek_16900", Line: "tokyu"},
	{Name: "二子玉川", Code: "ek_32270", Line: "tokyu"},
	{Name: "溝の口", Code: "ek_36850", Line: "tokyu"},
	{Name: "武蔵小杉", Code: "ek_38720", Line: "tokyu"},
	{Name: "日吉", Code: "ek_33150", Line: "tokyu"},

	{Name: "大宮", Code: "ek_06310", Line: "saitama"},
	{Name: "浦和", Code: "ek_04710", Line: "saitama"},
	{Name: "川口", Code: "ek_09870", Line: "saitama"},
	{Name: "赤羽", Code: "ek_01020", Line: "saitama"},

	{Name: "船橋", Code: "ek_34480", Line: "chiba"},
	{Name: "津田沼", Code: "ek_24780", Line: "chiba"},
	{Name: "西船橋", Code: "ek_29360", Line: "chiba"},
	{Name: "市川", Code: "ek_02990", Line: "chiba"},

	{Name: "横浜", Code: "ek_40940", Line: "kanagawa"},
	{Name: "川崎", Code: "ek_09920", Line: "kanagawa"},
	{Name: "鶴見", Code: "ek_25070", Line: "kanagawa"},
	{Name: "新横浜", Code: "ek_20390", Line: "kanagawa"},
}

var byName = make(map[string]Station, len(directory))

func init() {
	for _, s := range directory {
		byName[s.Name] = s
	}
}

// Resolve looks a station up by name. A trailing 駅 suffix is tolerated so
// names lifted from access text resolve too.
func Resolve(name string) (Station, error) {
	key := strings.TrimSuffix(strings.TrimSpace(name), "駅")
	s, ok := byName[key]
	if !ok {
		return Station{}, &UnknownStationError{Name: name}
	}
	return s, nil
}

// All returns every supported station sorted by name.
func All() []Station {
	out := make([]Station, len(directory))
	copy(out, directory)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OnLine returns the stations of one line in declaration order.
func OnLine(line string) []Station {
	var out []Station
	for _, s := range directory {
		if s.Line == line {
			out = append(out, s)
		}
	}
	return out
}

// Yamanote returns the Yamanote loop stations in loop order.
func Yamanote() []Station {
	return OnLine("yamanote")
}

// Lines returns the known line slugs in declaration order.
func Lines() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range directory {
		if !seen[s.Line] {
			seen[s.Line] = true
			out = append(out, s.Line)
		}
	}
	return out
}

// IsYamanote reports whether the named station sits on the Yamanote loop.
func IsYamanote(name string) bool {
	s, err := Resolve(name)
	return err == nil && s.Line == "yamanote"
}

// Prefectures lists the search areas SUUMO's chintai URLs accept here.
func Prefectures() []string {
	return []string{"tokyo", "kanagawa", "saitama", "chiba"}
}

// IsValidPrefecture reports whether p is a supported search area.
func IsValidPrefecture(p string) bool {
	for _, v := range Prefectures() {
		if v == p {
			return true
		}
	}
	return false
}
