package persona

import "strings"

const rickrollFallback = "dank_memer"

var rickrollResponses = map[string]string{
	"cynical_vc": `*adjusts AirPods Max*
Oh, another Rick Astley play? Let me run some quick numbers on that TAM...
Never gonna raise that Series A,
Never gonna scale that way,
Your burn rate's too high, goodbye...`,
	"starry_teen": `OMG bestie! 🎵 Did you know 🎸 that Rick Astley 🌟 is literally such a vibe?!
Never gonna give 💝 you up!!!
Never gonna let 🎀 you down!!!`,
	"conspiracy_nut": `WAKE UP SHEEPLE!
Did you know Rick Astley's 'Never Gonna Give You Up' contains hidden messages about the lizard people?
The dance moves are actually ancient alien signals!`,
	"meme_lord": `( ͡° ͜ʖ ͡°) You've been RICK ROLLED!
*Inserts ASCII Rick Astley here*`,
	"dank_memer": `kek, imagine getting rickrolled in current_year
Based Rick Astley dropping the ultimate copypasta IRL
Never gonna give you up (gone wrong) (gone viral) (FBI called)`,
	"chaos_agent": `*REALITY BENDS* Time is a circle and that circle is Rick Astley dancing!
*void screams in 80s pop*`,
	"elite_status": `🎭 Ah, I see you're a connoisseur of the classical bait-and-switch!
*performs an eloquent rendition of Richard Astley's magnum opus*`,
	"legendary": `✨ *LEGENDARY RICKROLL ACTIVATED*
Combining all known forms of Rick Astley memes into one...
You've witnessed the ultimate rickroll! 🌟`,
}

// IsRickroll reports whether the question triggers the easter egg.
func IsRickroll(question string) bool {
	return strings.EqualFold(strings.TrimSpace(question), "rickroll")
}

// Rickroll returns the canned easter-egg reply for a mode.
func Rickroll(modeID string) string {
	if resp, ok := rickrollResponses[modeID]; ok {
		return resp
	}
	return rickrollResponses[rickrollFallback]
}
