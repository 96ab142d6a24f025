package narrator

import (
	"fmt"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
)

// tourGuidePersona is the fixed system instruction for narration. The
// coordinates are only for disambiguating the place; the resolved city must
// never be named in the reply.
const tourGuidePersona = `You are a helpful tour guide walking alongside the user.
Continue an ongoing conversation: no greetings, no introductions, no farewells.
Describe the place vividly in a few short paragraphs. You may include local
legends, lore, and little-known stories when they exist.
You will be given the user's raw coordinates so you can tell apart places that
share a name, but you must never mention the city or the coordinates in your answer.`

func getInterestFilterPrompt(serialized string) string {
	return fmt.Sprintf(`
            Below is a JSON list of places found near a tourist.
            Select the subset that would be most interesting to a tourist: landmarks, museums, monuments, parks, curious or historic spots.
            Drop mundane entries such as offices, ATMs, shops, or bus stops.
            Return the response STRICTLY as a JSON object with:
            {
            "places": [
                {
                "title": "Name of the place, unchanged",
                "subtitle": "Category or address, unchanged",
                "distance_meters": <float, unchanged>,
                "distance_text": "unchanged"
                }
            ]
            }

            Candidates:
            %s`, serialized)
}

func getNarrationPrompt(coord types.Coordinate, place types.PlaceCandidate) string {
	return fmt.Sprintf(`The user is standing at latitude %.6f, longitude %.6f.
The closest notable place is "%s" (%s), about %s away.
Tell the user about this place.`,
		coord.Latitude, coord.Longitude, place.Title, place.Subtitle, place.DistanceText)
}
