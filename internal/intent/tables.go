package intent

// Catalog genre ids (movie taxonomy unless noted)
const (
	genreAction      = 28
	genreAdventure   = 12
	genreAnimation   = 16
	genreComedy      = 35
	genreCrime       = 80
	genreDocumentary = 99
	genreDrama       = 18
	genreFamily      = 10751
	genreFantasy     = 14
	genreHistory     = 36
	genreHorror      = 27
	genreMusic       = 10402
	genreMystery     = 9648
	genreRomance     = 10749
	genreSciFi       = 878
	genreThriller    = 53
	genreWar         = 10752
	genreWestern     = 37
)

type genreKeyword struct {
	keyword string
	genres  []int
}

// genreKeywords is scanned in order; every match contributes. Matching is
// whole-word, so plurals need their own entry. "wars" has none: it would
// fire on "Star Wars".
var genreKeywords = []genreKeyword{
	{"sci-fi", []int{genreSciFi}},
	{"scifi", []int{genreSciFi}},
	{"science fiction", []int{genreSciFi}},
	{"space", []int{genreSciFi}},
	{"cyberpunk", []int{genreSciFi}},
	{"dystopian", []int{genreSciFi}},
	{"time travel", []int{genreSciFi}},
	{"mind-bending", []int{genreSciFi, genreMystery}},
	{"mind bending", []int{genreSciFi, genreMystery}},
	{"action", []int{genreAction}},
	{"superhero", []int{genreAction, genreSciFi}},
	{"superheroes", []int{genreAction, genreSciFi}},
	{"martial arts", []int{genreAction}},
	{"adventure", []int{genreAdventure}},
	{"anime", []int{genreAnimation}},
	{"animated", []int{genreAnimation}},
	{"animation", []int{genreAnimation}},
	{"cartoon", []int{genreAnimation}},
	{"cartoons", []int{genreAnimation}},
	{"comedy", []int{genreComedy}},
	{"comedies", []int{genreComedy}},
	{"sitcom", []int{genreComedy}},
	{"sitcoms", []int{genreComedy}},
	{"crime", []int{genreCrime}},
	{"heist", []int{genreCrime, genreThriller}},
	{"heists", []int{genreCrime, genreThriller}},
	{"gangster", []int{genreCrime}},
	{"gangsters", []int{genreCrime}},
	{"detective", []int{genreCrime, genreMystery}},
	{"detectives", []int{genreCrime, genreMystery}},
	{"documentary", []int{genreDocumentary}},
	{"documentaries", []int{genreDocumentary}},
	{"drama", []int{genreDrama}},
	{"dramas", []int{genreDrama}},
	{"family", []int{genreFamily}},
	{"kids", []int{genreFamily}},
	{"fantasy", []int{genreFantasy}},
	{"fantasies", []int{genreFantasy}},
	{"magic", []int{genreFantasy}},
	{"historical", []int{genreHistory}},
	{"history", []int{genreHistory}},
	{"period piece", []int{genreHistory, genreDrama}},
	{"horror", []int{genreHorror}},
	{"scary", []int{genreHorror}},
	{"slasher", []int{genreHorror}},
	{"slashers", []int{genreHorror}},
	{"musical", []int{genreMusic}},
	{"musicals", []int{genreMusic}},
	{"mystery", []int{genreMystery}},
	{"mysteries", []int{genreMystery}},
	{"whodunit", []int{genreMystery}},
	{"whodunits", []int{genreMystery}},
	{"romance", []int{genreRomance}},
	{"romances", []int{genreRomance}},
	{"romantic", []int{genreRomance}},
	{"love story", []int{genreRomance}},
	{"rom-com", []int{genreRomance, genreComedy}},
	{"rom-coms", []int{genreRomance, genreComedy}},
	{"romcom", []int{genreRomance, genreComedy}},
	{"romcoms", []int{genreRomance, genreComedy}},
	{"thriller", []int{genreThriller}},
	{"thrillers", []int{genreThriller}},
	{"suspense", []int{genreThriller}},
	{"psychological", []int{genreThriller}},
	{"war", []int{genreWar}},
	{"western", []int{genreWestern}},
	{"westerns", []int{genreWestern}},
}

type moodBucket struct {
	mood     string
	keywords []string
}

// moodBuckets is ordered; the first bucket with a match wins.
var moodBuckets = []moodBucket{
	{"cozy", []string{"cozy", "cosy", "comfy", "comfort", "rainy day", "relaxing", "chill", "wholesome"}},
	{"uplifting", []string{"uplifting", "feel-good", "feel good", "heartwarming", "happy", "inspiring", "hopeful"}},
	{"dark", []string{"dark", "gritty", "bleak", "disturbing", "grim", "noir"}},
	{"intense", []string{"intense", "edge of my seat", "edge-of-your-seat", "adrenaline", "gripping", "tense"}},
	{"thought-provoking", []string{"mind-bending", "mind bending", "thought-provoking", "cerebral", "philosophical", "trippy", "twist"}},
	{"emotional", []string{"sad", "tearjerker", "emotional", "cry", "moving", "heartbreaking"}},
	{"funny", []string{"funny", "hilarious", "laugh", "lighthearted", "silly"}},
	{"romantic", []string{"date night", "romantic", "swoon"}},
	{"scary", []string{"scary", "creepy", "spooky", "terrifying"}},
}

type languageKeyword struct {
	keyword string
	code    string
}

// languageKeywords is matched once, first hit wins. "anime" implies
// Japanese-language originals.
var languageKeywords = []languageKeyword{
	{"korean", "ko"},
	{"k-drama", "ko"},
	{"kdrama", "ko"},
	{"japanese", "ja"},
	{"anime", "ja"},
	{"chinese", "zh"},
	{"mandarin", "zh"},
	{"cantonese", "cn"},
	{"french", "fr"},
	{"spanish", "es"},
	{"german", "de"},
	{"italian", "it"},
	{"hindi", "hi"},
	{"bollywood", "hi"},
	{"turkish", "tr"},
	{"danish", "da"},
	{"swedish", "sv"},
	{"norwegian", "no"},
	{"thai", "th"},
	{"portuguese", "pt"},
	{"russian", "ru"},
}

var (
	tvTokens    = []string{"tv show", "tv shows", "tv series", "series", "shows", "episodes", "season", "seasons", "sitcom", "miniseries", "binge", "tv", "k-drama", "kdrama"}
	movieTokens = []string{"movie", "movies", "film", "films", "flick", "flicks", "cinema"}

	acclaimTokens  = []string{"best", "greatest", "masterpiece", "acclaimed", "award-winning", "award winning", "oscar", "top rated", "top-rated", "highly rated", "must-watch", "must watch", "critically"}
	hiddenGemTerms = []string{"underrated", "hidden gem", "hidden gems", "lesser known", "lesser-known", "obscure", "overlooked", "under the radar"}
	popularTokens  = []string{"popular", "trending", "blockbuster", "everyone is watching", "hit"}
)

// Sort hints understood by the catalog discover endpoint
const (
	SortPopularity = "popularity.desc"
	SortRating     = "vote_average.desc"
)

const (
	acclaimMinRating   = 7.5
	hiddenGemMinRating = 7.0
)
