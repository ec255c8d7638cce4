package identity

import "strings"

// ═══════════════════════════════════════════════════════════════════════════════
// ABBREVIATION NORMALIZATION
// ═══════════════════════════════════════════════════════════════════════════════
//
// Maps raw provider team codes to canonical franchise names. Historical
// codes for relocated/rebranded teams map to the same franchise as the
// current code, so the 1995 Sonics and the 2024 Thunder share a lineage.
//
// Unknown codes are NOT guessed; callers must skip the record.
//
// ═══════════════════════════════════════════════════════════════════════════════

var franchiseNames = map[string]map[string]string{
	"nba": {
		"ATL": "Hawks",
		"BOS": "Celtics",
		"BKN": "Nets",
		"NJN": "Nets", // New Jersey era
		"CHA": "Hornets",
		"CHH": "Hornets", // original Charlotte era
		"CHI": "Bulls",
		"CLE": "Cavaliers",
		"DAL": "Mavericks",
		"DEN": "Nuggets",
		"DET": "Pistons",
		"GSW": "Warriors",
		"HOU": "Rockets",
		"IND": "Pacers",
		"LAC": "Clippers",
		"SDC": "Clippers", // San Diego era
		"LAL": "Lakers",
		"MEM": "Grizzlies",
		"VAN": "Grizzlies", // Vancouver era
		"MIA": "Heat",
		"MIL": "Bucks",
		"MIN": "Timberwolves",
		"NOP": "Pelicans",
		"NOH": "Pelicans", // New Orleans Hornets era
		"NOK": "Pelicans", // Oklahoma City interlude
		"NYK": "Knicks",
		"OKC": "Thunder",
		"SEA": "Thunder", // Seattle SuperSonics era
		"ORL": "Magic",
		"PHI": "76ers",
		"PHX": "Suns",
		"POR": "Trail Blazers",
		"SAC": "Kings",
		"SAS": "Spurs",
		"TOR": "Raptors",
		"UTA": "Jazz",
		"WAS": "Wizards",
	},
	"nfl": {
		"ARI": "Cardinals",
		"ATL": "Falcons",
		"BAL": "Ravens",
		"BUF": "Bills",
		"CAR": "Panthers",
		"CHI": "Bears",
		"CIN": "Bengals",
		"CLE": "Browns",
		"DAL": "Cowboys",
		"DEN": "Broncos",
		"DET": "Lions",
		"GB":  "Packers",
		"HOU": "Texans",
		"IND": "Colts",
		"JAX": "Jaguars",
		"KC":  "Chiefs",
		"LV":  "Raiders",
		"OAK": "Raiders", // Oakland era
		"LAC": "Chargers",
		"SD":  "Chargers", // San Diego era
		"LAR": "Rams",
		"STL": "Rams", // St. Louis era
		"MIA": "Dolphins",
		"MIN": "Vikings",
		"NE":  "Patriots",
		"NO":  "Saints",
		"NYG": "Giants",
		"NYJ": "Jets",
		"PHI": "Eagles",
		"PIT": "Steelers",
		"SEA": "Seahawks",
		"SF":  "49ers",
		"TB":  "Buccaneers",
		"TEN": "Titans",
		"HST": "Titans", // Houston Oilers era
		"WAS": "Commanders",
		"WSH": "Commanders",
	},
	"mlb": {
		"ARI": "Diamondbacks",
		"ATL": "Braves",
		"BAL": "Orioles",
		"BOS": "Red Sox",
		"CHC": "Cubs",
		"CWS": "White Sox",
		"CIN": "Reds",
		"CLE": "Guardians",
		"COL": "Rockies",
		"DET": "Tigers",
		"HOU": "Astros",
		"KC":  "Royals",
		"LAA": "Angels",
		"ANA": "Angels", // Anaheim era
		"LAD": "Dodgers",
		"MIA": "Marlins",
		"FLA": "Marlins", // Florida era
		"MIL": "Brewers",
		"MIN": "Twins",
		"NYM": "Mets",
		"NYY": "Yankees",
		"OAK": "Athletics",
		"PHI": "Phillies",
		"PIT": "Pirates",
		"SD":  "Padres",
		"SEA": "Mariners",
		"SF":  "Giants",
		"STL": "Cardinals",
		"TB":  "Rays",
		"TBD": "Rays", // Devil Rays era
		"TEX": "Rangers",
		"TOR": "Blue Jays",
		"WSH": "Nationals",
		"MON": "Nationals", // Montreal Expos era
	},
	"nhl": {
		"ANA": "Ducks",
		"BOS": "Bruins",
		"BUF": "Sabres",
		"CGY": "Flames",
		"CAR": "Hurricanes",
		"HFD": "Hurricanes", // Hartford Whalers era
		"CHI": "Blackhawks",
		"COL": "Avalanche",
		"QUE": "Avalanche", // Quebec Nordiques era
		"CBJ": "Blue Jackets",
		"DAL": "Stars",
		"MNS": "Stars", // Minnesota North Stars era
		"DET": "Red Wings",
		"EDM": "Oilers",
		"FLA": "Panthers",
		"LAK": "Kings",
		"MIN": "Wild",
		"MTL": "Canadiens",
		"NSH": "Predators",
		"NJD": "Devils",
		"NYI": "Islanders",
		"NYR": "Rangers",
		"OTT": "Senators",
		"PHI": "Flyers",
		"PIT": "Penguins",
		"SEA": "Kraken",
		"SJS": "Sharks",
		"STL": "Blues",
		"TBL": "Lightning",
		"TOR": "Maple Leafs",
		"UTA": "Mammoth",
		"ARI": "Mammoth", // Arizona Coyotes era
		"PHX": "Mammoth", // Phoenix Coyotes era
		"VAN": "Canucks",
		"VGK": "Golden Knights",
		"WSH": "Capitals",
		"WPG": "Jets",
		"ATL": "Jets", // Atlanta Thrashers era
	},
}

// CanonicalName maps a raw provider abbreviation to its canonical franchise
// name. Returns "" when the code is unknown for the sport.
func CanonicalName(sport, rawAbbrev string) string {
	table, ok := franchiseNames[strings.ToLower(sport)]
	if !ok {
		return ""
	}
	return table[strings.ToUpper(strings.TrimSpace(rawAbbrev))]
}
