package tools

// Prompts used by fixed editor actions rather than catalog entries.
const (
	AutoEditPrompt         = "Enhance this photo to look like a high-end professional image with perfect lighting, sharpness, and natural color balance."
	RemoveBackgroundPrompt = "Remove the background from this image and make it transparent."
	StyleTransferPrompt    = "Transfer the artistic style of the second image (reference) onto the first image (target). Maintain the subject structure and composition of the first image, but adopt the color palette, brushwork, texture, and artistic technique of the second image."
)

// SamplePrompts seed the "generate sample" action.
var SamplePrompts = []string{
	"A cinematic studio portrait of a cat wearing a leather jacket and sunglasses, dramatic lighting, high detail",
	"A futuristic cyberpunk city street at night with neon signs and rain reflections, photorealistic",
	"A serene mountain landscape at sunrise with a crystal clear lake reflection, wide angle",
	"A delicious gourmet burger with melting cheese and fresh vegetables, professional food photography",
	"A vintage polaroid style photo of a retro car on a desert highway, nostalgic vibes",
}

// Catalog is the built-in tool table.
var Catalog = []Category{
	{
		Name: "AI Enhance",
		Tools: []Tool{
			{Name: "Auto Light & Color", Edit: DirectEdit{Prompt: "Auto correct exposure, contrast, and white balance for a balanced, natural look."}},
			{Name: "HDR Effect", Edit: DirectEdit{Prompt: "Apply a subtle HDR effect, balancing shadows and highlights for more detail."}},
		},
	},
	{
		Name: "Generative Templates",
		Tools: []Tool{
			{Name: "Only Background", Edit: TemplateEdit{Prompt: "Using the uploaded reference image, keep the person's exact face, facial expression, hairstyle, natural skin tone, and outfit completely unchanged. Do not alter their body shape, pose, or clothing. Replace only the background with [DESCRIBE BACKGROUND HERE], using soft, even studio lighting, gentle shadows, and a professional portrait look. Maintain high resolution, sharp details, and natural color balance. Do not change the subject's identity, skin, or clothes in any way, only the background."}},
			{Name: "Only Clothes", Edit: TemplateEdit{Prompt: "Using the uploaded reference image, keep the person's exact face, facial expression, hairstyle, natural skin texture, and the original background fully unchanged. Do not modify the pose or the lighting on the face. Change only the outfit to [DESCRIBE OUTFIT HERE] while matching the lighting and perspective of the original photo. Preserve the original body proportions and silhouette. Do not change the person's identity or skin tone, only replace the clothing."}},
			{Name: "Background + Clothes", Edit: TemplateEdit{Prompt: "Using the uploaded reference image, keep the person's exact face, facial expression, hairstyle, and natural skin tone completely unchanged. Do not alter their identity or body proportions. Change the outfit to [DESCRIBE OUTFIT] and replace the background with [DESCRIBE BACKGROUND]. Match the lighting direction and intensity so the subject blends naturally with the new background. Maintain high resolution, sharp details, and realistic shadows while keeping the subject's skin and facial features exactly as in the reference."}},
			{Name: "Skin Retouch", Edit: DirectEdit{Prompt: "Using the uploaded reference image, keep the person's face structure, expression, and natural skin tone exactly the same. Do not change their identity, body shape, clothes, or background. Apply a subtle professional beauty retouch: gently smooth the skin while preserving pores and texture, reduce harsh shadows or shiny hotspots, even out minor blemishes, and slightly enhance clarity around the eyes and lips. Keep the edit natural and realistic, as if done by a high-end studio retoucher."}},
			{Name: "Full Creative Edit", Edit: TemplateEdit{Prompt: "Using the uploaded reference image as a base, keep the person's core identity and facial structure recognizable, but allow creative changes to the background, outfit, and overall skin styling. Transform the outfit into [FASHION STYLE], change the background to [ENVIRONMENT], and apply a stylized skin look such as [STYLE e.g. soft cinematic grading]. Maintain correct anatomy and proportions, with high resolution, clean edges, and cinematic lighting"}},
		},
	},
	{
		Name: "Studio Light",
		Tools: []Tool{
			{Name: "Softbox Lighting", Edit: DirectEdit{Prompt: "Add soft, diffuse studio lighting to the subject."}},
			{Name: "Rim Light", Edit: DirectEdit{Prompt: "Add a dramatic rim light (backlight) to outline the subject."}},
			{Name: "Butterfly Light", Edit: DirectEdit{Prompt: "Apply butterfly lighting to the subject's face (glamour lighting, symmetric shadow under nose)."}},
			{Name: "Loop Light", Edit: DirectEdit{Prompt: "Apply loop lighting to the subject (small shadow of the nose on the cheek)."}},
			{Name: "Rembrandt", Edit: DirectEdit{Prompt: "Apply Rembrandt lighting (classic triangle of light on the cheek)."}},
			{Name: "Cinematic", Edit: DirectEdit{Prompt: "Apply cinematic teal and orange lighting."}},
		},
	},
	{
		Name: "Background",
		Tools: []Tool{
			{Name: "Blur Background", Edit: DirectEdit{Prompt: "Blur the background of the image to create a depth of field effect (bokeh)."}},
			{Name: "Remove Background", Edit: DirectEdit{Prompt: "Remove the background and make it transparent."}},
			{Name: "Replace with Studio Grey", Edit: DirectEdit{Prompt: "Change the background to a solid professional studio dark grey."}},
		},
	},
	{
		Name: "Artistic Styles",
		Tools: []Tool{
			{Name: "Van Gogh", Edit: DirectEdit{Prompt: "Transform this image into the style of Van Gogh's Starry Night, with swirling brushstrokes and vibrant blue and yellow colors."}},
			{Name: "Cyberpunk Style", Edit: DirectEdit{Prompt: "Apply a futuristic cyberpunk style with neon lights, high contrast, and a tech-noir aesthetic."}},
			{Name: "Watercolor", Edit: DirectEdit{Prompt: "Convert this image into a soft, dreamy watercolor painting with bleeding edges and pastel tones."}},
			{Name: "Oil Painting", Edit: DirectEdit{Prompt: "Make this look like a classical oil painting with rich textures and visible brushwork."}},
			{Name: "Anime", Edit: DirectEdit{Prompt: "Transform this image into a high-quality anime style with clean lines and vibrant shading."}},
			{Name: "Sketch", Edit: DirectEdit{Prompt: "Turn this image into a detailed pencil sketch drawing."}},
		},
	},
}
