package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:8081/api"

const testCollection = "smoke_test"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // streaming endpoint, no timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting RAG API Smoke Test\n")

	// 1. Health
	color.Yellow("\n[1] Health check")
	resp, body, err := sendRequest("GET", "/health", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 2. Create collection
	color.Yellow("\n[2] Create collection %q", testCollection)
	resp, body, err = sendRequest("POST", "/collection/v1", map[string]interface{}{
		"collection_name": testCollection,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 3. Upload a document
	color.Yellow("\n[3] Upload document")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("collection_name", testCollection)
	fw, _ := mw.CreateFormFile("documents", "notes.txt")
	fw.Write([]byte("The quick brown fox jumps over the lazy dog. Foxes are small omnivorous mammals."))
	mw.Close()

	req, _ := http.NewRequest("POST", baseURL+"/document/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	uploadResp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	uploadBody, _ := io.ReadAll(uploadResp.Body)
	uploadResp.Body.Close()
	color.Green("Status: %s", uploadResp.Status)
	prettyPrint(uploadBody)

	// 4. Generate with decomposition, streamed
	color.Yellow("\n[4] Generate (streaming)")
	genBody, _ := json.Marshal(map[string]interface{}{
		"collection_name": testCollection,
		"messages": []map[string]string{
			{"role": "user", "content": "What do foxes eat and how fast are they?"},
		},
	})
	genReq, _ := http.NewRequest("POST", baseURL+"/generate/v1", bytes.NewReader(genBody))
	genReq.Header.Set("Content-Type", "application/json")
	genResp, err := http.DefaultClient.Do(genReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer genResp.Body.Close()
	color.Green("Status: %s", genResp.Status)

	scanner := bufio.NewScanner(genResp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			fmt.Println(line)
		}
	}

	color.Cyan("\n✅ Smoke test finished")
}
