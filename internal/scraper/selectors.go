package scraper

// DOM contract of the fixture and match-detail pages.
const (
	selMatchList      = ".p0c-competition-match-list"
	selDateHeader     = ".p0c-competition-match-list__title"
	classMatchesBlock = "p0c-competition-match-list__matches"
	selMatchRow       = ".p0c-competition-match-list__row"
	selHomeTeam       = ".p0c-competition-match-list__team-name--home .p0c-competition-match-list__team-full"
	selAwayTeam       = ".p0c-competition-match-list__team-name--away .p0c-competition-match-list__team-full"
	selHomeScore      = ".p0c-competition-match-list__team--home .p0c-competition-match-list__score"
	selAwayScore      = ".p0c-competition-match-list__team--away .p0c-competition-match-list__score"
	selMatchStatus    = ".p0c-competition-match-list__status"
	selMatchLink      = "a.p0c-competition-match-list__match-link"

	selWeekLabel       = ".widget-gameweek__selected-label"
	selPrevArrow       = ".widget-gameweek__arrow--prev"
	selNextArrow       = ".widget-gameweek__arrow--next"
	classArrowDisabled = "widget-gameweek__arrow--disabled"

	selConsentButton = `//button[contains(normalize-space(.), 'Kabul Et')]`

	selIddaaTab       = ".widget-match-detail-submenu__icon--iddaa"
	selMarketTab      = ".widget-dropdown-tabs__link"
	overUnderTabLabel = "Altı/Üstü"
	selMarket         = ".widget-iddaa-markets__market"
	selMarketHeader   = ".widget-iddaa-markets__market-header, .widget-iddaa-markets__market-title"
	selMarketOption   = ".widget-iddaa-markets__option"
	selOptionLabel    = ".widget-iddaa-markets__label, .widget-iddaa-markets__option-label"
	selOptionValue    = ".widget-iddaa-markets__value, .widget-iddaa-markets__option-value"
)

// weekLabelSuffix follows the round number in the week selector ("3. Hafta").
const weekLabelSuffix = ". Hafta"

var (
	overUnderHeaders = []string{"ALT/ÜST", "Alt/Üst", "Altı/Üstü"}
	overOptionLabels = []string{"Üst", "Üstü"}
)
