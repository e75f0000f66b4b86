package controversy

// Rule is a single pattern in a category table. Patterns are matched
// case-insensitively; a pattern can opt out with a leading (?-i).
type Rule struct {
	Pattern  string
	Severity Severity
	Detail   string
}

// Table is the ordered rule list for one category.
type Table struct {
	Category Category
	Message  string
	Rules    []Rule
}

// DefaultTables is the built-in rule set, in category declaration order.
var DefaultTables = []Table{
	{
		Category: CategoryOffensiveLanguage,
		Message:  "Offensive language is a top driver of mutes and reports",
		Rules: []Rule{
			{`\bf+u+c+k+\s*(you|off|u)\b`, SeverityHigh, "Directed profanity reads as abuse and gets reported"},
			{`\b(scum(bags?)?|sub-?human|vermin|pieces? of (shit|garbage|trash))\b`, SeverityHigh, "Dehumanizing insults trigger abuse filters"},
			{`\b(idiots?|morons?|imbeciles?|dumbass(es)?|clowns?)\b`, SeverityMedium, "Insults invite blocks from readers who feel targeted"},
			{`\b(stupid|dumb|pathetic|worthless|braindead)\b`, SeverityLow, "Belittling words lower perceived quality"},
			{`\b(f+u+c+k+(ing|ed)?|sh[i1]t+(ty)?|bullsh[i1]t|wtf|stfu)\b`, SeverityLow, "Profanity limits reach in brand-safe timelines"},
			{`\b(kill|murder|shoot|stab|strangle|hurt)\s+(you|u|him|her|them|yourself)\b`, SeverityMedium, "Violent verbs aimed at people are reported even as jokes"},
			{`\b(deserves? to die|should (be (shot|killed|hanged|executed)|die))\b`, SeverityHigh, "Wishing death on someone reads as a threat"},
		},
	},
	{
		Category: CategoryHotButtonTopic,
		Message:  "Hot-button topics draw polarized engagement and mutes",
		Rules: []Rule{
			{`\b(democrats?|republicans?|liberals?|conservatives?|leftists?|right-?wingers?|maga|libtards?)\b`, SeverityLow, "Partisan labels split the audience"},
			{`\b(abortion|gun control|immigration|illegals|border crisis|vaccines?|vaxx(ed)?)\b`, SeverityLow, "Contested political topics attract hostile replies"},
			{`\b(all|every|most) (men|women|muslims|christians|jews|immigrants|boomers|millennials|gen ?z|liberals|conservatives)\s+(are|is|should)\b`, SeverityHigh, "Group generalizations are heavily reported"},
			{`\b(israel|palestine|gaza|ukraine|russia)\b.*\b(war|genocide|invasion)\b`, SeverityMedium, "Active conflicts trigger sensitive-content handling"},
		},
	},
	{
		Category: CategoryInflammatoryTone,
		Message:  "Confrontational tone lowers dwell time and raises negative feedback",
		Rules: []Rule{
			{`(?-i)\b[A-Z]{4,}\b[^a-z]*\b[A-Z]{4,}\b[^a-z]*\b[A-Z]{4,}\b`, SeverityLow, "Sustained ALL CAPS reads as shouting"},
			{`[!?]{3,}`, SeverityLow, "Stacked punctuation reads as agitation"},
			{`\b(wake up|open your eyes),? (people|sheeple|everyone)\b`, SeverityMedium, "Lecturing the audience invites pushback"},
			{`\bhow (dare|can) (you|they|anyone)\b`, SeverityMedium, "Outrage framing escalates threads"},
			{`\b(disgusting|shameful|disgraceful|vile|evil)\b`, SeverityMedium, "Moral outrage words correlate with mutes"},
		},
	},
	{
		Category: CategoryRageBait,
		Message:  "Rage bait earns replies but also reports and reach throttling",
		Rules: []Rule{
			{`\b(prove me wrong|change my mind|fight me)\b`, SeverityLow, "Provocation prompts are a known bait pattern"},
			{`\bthis (will|is going to) (trigger|upset|anger|offend) (a lot of|many|some|most) (people|of you)\b`, SeverityMedium, "Announcing provocation flags the post as bait"},
			{`\b(ratio(ed)?|cope|seethe|stay mad)\b`, SeverityMedium, "Dunking vocabulary attracts pile-ons"},
			{`\b(only|real) (idiots|losers|morons|clowns) (think|believe|use|like)\b`, SeverityHigh, "Insulting everyone who disagrees drives mass blocks"},
		},
	},
	{
		Category: CategoryTargetedAttack,
		Message:  "Attacks on specific people are the strongest negative signal",
		Rules: []Rule{
			{`\b(i'?ll|i will|i'?m (going to|gonna)|i am (going to|gonna)|gonna|going to|we'?ll|we will)\b[^.!?]{0,30}?\b(kill|murder|shoot|stab|hurt|end) (you|u|him|her|them)\b`, SeverityCritical, "Threats of violence are removed and can suspend the account"},
			{`\b(kys|kill yourself|you (should|deserve to) die|hope you die|go die)\b`, SeverityCritical, "Death wishes and self-harm encouragement are removed on sight"},
			{`\b(dox+(ing|ed)?|home address|where (he|she|they) lives?)\b`, SeverityCritical, "Doxxing language violates private-information rules"},
			{`\b(everyone|everybody|y'?all|guys),? (go |please )?(report|block|mass[- ]report)\b`, SeverityHigh, "Calls to mass-report are coordinated harm"},
			{`\b(cancel|boycott|mass[- ]report) @[\w]+`, SeverityHigh, "Cancel campaigns against named accounts are reported"},
			{`@[\w]+ (is|you'?re|ur) (a |an |such a )?(liar|fraud|clown|joke|idiot|grifter|scammer)\b`, SeverityHigh, "Name-calling a specific account is targeted harassment"},
		},
	},
	{
		Category: CategoryMisinfoPattern,
		Message:  "Misinformation framing triggers labels and reduced distribution",
		Rules: []Rule{
			{`\b(do your own research|dyor)\b`, SeverityLow, "Research-deflection framing is associated with misinformation"},
			{`\b(they|the media|mainstream media|msm|the government) (don'?t|doesn'?t|do not|does not) want you to (know|see)\b`, SeverityMedium, "Suppression framing is a conspiracy pattern"},
			{`\b(doctors|scientists|experts) (hate|are hiding|won'?t tell you)\b`, SeverityMedium, "Anti-expert hooks are a clickbait pattern"},
			{`\b(100%|scientifically|clinically) proven\b`, SeverityMedium, "Absolute proof claims attract community notes"},
			{`\b(as a|i'?m a) (doctor|nurse|scientist|lawyer|economist),? (and )?(i can tell you|trust me|believe me)\b`, SeverityMedium, "Appeals to unverifiable authority attract fact checks"},
			{`\b(plandemic|chemtrails?|false flag|deep state|crisis actors?|new world order)\b`, SeverityHigh, "Known conspiracy terms trigger misinformation labels"},
			{`\b(share|spread|retweet) (this )?before (it'?s|they) (deleted|removed|banned|take it down)\b`, SeverityHigh, "Censorship-urgency framing is a misinformation signature"},
		},
	},
}
