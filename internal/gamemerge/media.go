package gamemerge

import (
	"net/url"
	"strconv"
	"strings"

	"commenttogame/internal/textnorm"
	"commenttogame/pkg/models"
)

const youtubeShortBase = "https://youtu.be/"

// buildImages titles screenshots "Screenshot N" in input order and puts the
// main image first. A main image that is also a screenshot is moved and
// retitled, never duplicated.
func buildImages(mainImage string, screenshots []string) []models.MediaItem {
	seen := make(map[string]struct{}, len(screenshots))
	images := make([]models.MediaItem, 0, len(screenshots)+1)
	n := 0
	for _, u := range screenshots {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		k := textnorm.FoldKey(u)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		n++
		images = append(images, models.MediaItem{URL: u, Title: "Screenshot " + strconv.Itoa(n)})
	}

	mainImage = strings.TrimSpace(mainImage)
	if mainImage == "" {
		return images
	}

	mainKey := textnorm.FoldKey(mainImage)
	main := models.MediaItem{URL: mainImage, Title: models.TitleMainImage}
	for i, img := range images {
		if textnorm.FoldKey(img.URL) == mainKey {
			main.URL = img.URL
			images = append(images[:i], images[i+1:]...)
			break
		}
	}
	return append([]models.MediaItem{main}, images...)
}

// buildVideos titles trailers "Trailer N", deduplicating by YouTube id when
// one is given or can be read from the URL, and by URL otherwise.
func buildVideos(trailers []models.Trailer) []models.MediaItem {
	seen := make(map[string]struct{}, len(trailers))
	videos := make([]models.MediaItem, 0, len(trailers))
	for _, t := range trailers {
		yt := strings.TrimSpace(t.YouTubeID)
		u := strings.TrimSpace(t.URL)
		if yt == "" {
			yt = youtubeID(u)
		}
		if u == "" && yt != "" {
			u = youtubeShortBase + yt
		}
		if u == "" {
			continue
		}

		key := "url:" + textnorm.FoldKey(u)
		if yt != "" {
			key = "yt:" + yt
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		item := models.MediaItem{URL: u, Title: "Trailer " + strconv.Itoa(len(videos)+1)}
		if p := strings.TrimSpace(t.Platform); p != "" || yt != "" {
			item.Meta = map[string]string{}
			if p != "" {
				item.Meta["platform"] = p
			}
			if yt != "" {
				item.Meta["youtube_id"] = yt
			}
		}
		videos = append(videos, item)
	}
	return videos
}

// youtubeID extracts the video id from youtu.be, watch, embed and shorts
// URLs. Other URLs give "".
func youtubeID(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	path := strings.Trim(u.Path, "/")

	switch host {
	case "youtu.be":
		id, _, _ := strings.Cut(path, "/")
		return id
	case "youtube.com", "youtube-nocookie.com":
		if path == "watch" {
			return u.Query().Get("v")
		}
		for _, prefix := range []string{"embed/", "shorts/", "v/"} {
			if rest, ok := strings.CutPrefix(path, prefix); ok {
				id, _, _ := strings.Cut(rest, "/")
				return id
			}
		}
	}
	return ""
}

func itemRef(item models.MediaItem) *models.MediaItem {
	return &item
}

// posterImage: main image, else first non-main image, else first image.
func posterImage(images []models.MediaItem) *models.MediaItem {
	for _, img := range images {
		if img.Title == models.TitleMainImage {
			return itemRef(img)
		}
	}
	if img, ok := firstNonMain(images); ok {
		return itemRef(img)
	}
	if len(images) > 0 {
		return itemRef(images[0])
	}
	return nil
}

// featuredImage: "Screenshot 1", else first non-main image, else main image.
func featuredImage(images []models.MediaItem) *models.MediaItem {
	for _, img := range images {
		if img.Title == models.TitleScreenshot1 {
			return itemRef(img)
		}
	}
	if img, ok := firstNonMain(images); ok {
		return itemRef(img)
	}
	for _, img := range images {
		if img.Title == models.TitleMainImage {
			return itemRef(img)
		}
	}
	return nil
}

// posterVideo: "Trailer 1", else the first video.
func posterVideo(videos []models.MediaItem) *models.MediaItem {
	for _, v := range videos {
		if v.Title == models.TitleTrailer1 {
			return itemRef(v)
		}
	}
	if len(videos) > 0 {
		return itemRef(videos[0])
	}
	return nil
}

func firstNonMain(images []models.MediaItem) (models.MediaItem, bool) {
	for _, img := range images {
		if img.Title != models.TitleMainImage {
			return img, true
		}
	}
	return models.MediaItem{}, false
}
