package imagegen

import "strings"

// JerseyPrompt is the mockup instruction template. Placeholders are
// {teamName}, {primaryColor}, {secondaryColor} and {sponsorName}.
const JerseyPrompt = `Task: Create a realistic sponsorship mockup that feels local and authentic.

You are given:

Image A: a photo of {teamName}'s current soccer jersey (use this as the base image)
- The jersey should feature the team's primary color: {primaryColor}
- Secondary/accent color: {secondaryColor}
- Team name "{teamName}" should be visible on the jersey

Image B: the potential sponsor's logo for {sponsorName} (apply to the jersey)

Non-negotiable preservation rules:

Do NOT remove, alter, blur, repaint, relocate, or cover any existing jersey elements, especially:
- the club crest/logo on the left chest
- manufacturer logo, patterns, stripes, badges, numbers, collar details
- The team name "{teamName}" and any existing design elements

The only allowed change to the jersey is adding Image B (the {sponsorName} logo) as the sponsor.

Edit scope (only one change region):

Apply edits only to the center chest sponsor area (main sponsor zone).
Keep at least 5–8 cm (2–3 inches) clear space from the left-chest crest.

Sponsor placement:

Place the {sponsorName} logo (Image B) centered on the chest, horizontally aligned.
Size: about 60–70% of chest width (scale down if crowded).
Preserve the sponsor logo's exact colors, proportions, and shape. Do not redesign it.

Realism requirements:

Make the {sponsorName} sponsor logo look professionally applied (heat-transfer print):
- Match the jersey's lighting, shadows, and fabric texture
- Add subtle fabric wrinkles through the logo (realistic, but keep it readable)
- Keep edges crisp; no warping or melting artifacts
- Ensure the logo integrates naturally with the {primaryColor} and {secondaryColor} jersey colors

Background (local business vibe):

Replace the background with a softly blurred local soccer field / turf scene (authentic community vibe).
Use shallow depth of field so the jersey is sharp and the background is out of focus.
Keep it daytime / golden-hour natural light, not dramatic stadium lighting.
No crowds, no big pro stadium, no distracting signage.

Output:

Produce one high-quality, modern, photorealistic image of the {teamName} jersey with the {sponsorName} sponsor logo.
No additional text, no watermarks, no extra logos.`

// PromptParams fills the jersey prompt.
type PromptParams struct {
	TeamName       string
	PrimaryColor   string
	SecondaryColor string
	SponsorName    string
}

// sponsorlessReplacements run in order when no sponsor is named.
var sponsorlessReplacements = []struct{ old, new string }{
	{"for {sponsorName}", ""},
	{"the {sponsorName} logo", "the sponsor logo"},
	{"(the {sponsorName} logo)", ""},
	{"the {sponsorName} sponsor logo", "the sponsor logo"},
	{"with the {sponsorName} sponsor logo", ""},
}

// BuildJerseyPrompt substitutes params into JerseyPrompt.
func BuildJerseyPrompt(params PromptParams) string {
	prompt := strings.NewReplacer(
		"{teamName}", params.TeamName,
		"{primaryColor}", params.PrimaryColor,
		"{secondaryColor}", params.SecondaryColor,
	).Replace(JerseyPrompt)

	if params.SponsorName != "" {
		prompt = strings.ReplaceAll(prompt, "{sponsorName}", params.SponsorName)
	} else {
		for _, r := range sponsorlessReplacements {
			prompt = strings.ReplaceAll(prompt, r.old, r.new)
		}
	}
	return strings.TrimSpace(prompt)
}
